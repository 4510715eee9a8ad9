package storage

import (
	"path/filepath"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	if _, found, err := m.Load("missing"); err != nil || found {
		t.Fatalf("Load(missing) = found %v err %v, want absent", found, err)
	}

	if err := m.Store("save1", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	data, found, err := m.Load("save1")
	if err != nil || !found {
		t.Fatalf("Load(save1) = found %v err %v", found, err)
	}
	if len(data) != 3 || data[0] != 1 {
		t.Errorf("Load(save1) = %v", data)
	}

	// The returned slice must be a copy.
	data[0] = 99
	again, _, _ := m.Load("save1")
	if again[0] != 1 {
		t.Error("Load returned aliased storage")
	}

	if err := m.Delete("save1"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := m.Load("save1"); found {
		t.Error("blob survived Delete")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "so.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, found, err := s.Load("missing"); err != nil || found {
		t.Fatalf("Load(missing) = found %v err %v, want absent", found, err)
	}

	if err := s.Store("game", []byte("blob-1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Store("game", []byte("blob-2")); err != nil {
		t.Fatal(err)
	}
	data, found, err := s.Load("game")
	if err != nil || !found {
		t.Fatalf("Load(game) = found %v err %v", found, err)
	}
	if string(data) != "blob-2" {
		t.Errorf("Load(game) = %q, want replacement blob", data)
	}

	if err := s.Store("other", []byte("x")); err != nil {
		t.Fatal(err)
	}
	names, err := s.Names()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "game" || names[1] != "other" {
		t.Errorf("Names() = %v", names)
	}

	if err := s.Delete("game"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.Load("game"); found {
		t.Error("blob survived Delete")
	}
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "so.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store("scores", []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	data, found, err := reopened.Load("scores")
	if err != nil || !found {
		t.Fatalf("Load after reopen = found %v err %v", found, err)
	}
	if string(data) != "persisted" {
		t.Errorf("Load after reopen = %q", data)
	}
}

func TestWireRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"name":  "player1",
		"score": float64(1250),
		"sound": true,
	}
	raw, err := EncodeData(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeData(raw)
	if err != nil {
		t.Fatal(err)
	}
	if out["name"] != "player1" {
		t.Errorf("name = %v", out["name"])
	}
	if out["sound"] != true {
		t.Errorf("sound = %v", out["sound"])
	}
	switch n := out["score"].(type) {
	case float64:
		if n != 1250 {
			t.Errorf("score = %v", n)
		}
	case uint64:
		if n != 1250 {
			t.Errorf("score = %v", n)
		}
	default:
		t.Errorf("score has type %T", out["score"])
	}
}

func TestWireDeterministic(t *testing.T) {
	data := map[string]interface{}{"b": "2", "a": "1", "c": "3"}
	first, err := EncodeData(data)
	if err != nil {
		t.Fatal(err)
	}
	second, err := EncodeData(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("canonical encoding is not deterministic")
	}
}

func TestWireDecodeGarbage(t *testing.T) {
	if _, err := DecodeData([]byte{0xFF, 0x00, 0x13}); err == nil {
		t.Error("DecodeData(garbage) succeeded")
	}
}
