package sofa_test

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jpl-au/sofa"
	"github.com/jpl-au/sofa/engine/sqlite"
)

func Example() {
	dir, _ := os.MkdirTemp("", "sofa-example")
	defer os.RemoveAll(dir)

	// Create a store
	s, err := sofa.Open(filepath.Join(dir, "myapp.sofa"), sofa.ModeCreate, sofa.Config{})
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	// Store a document and make it durable
	s.Save(sofa.NewRecord([]byte("readme")), []byte("# My App"), 0)
	s.Commit()

	// Retrieve it
	body, _ := s.Get([]byte("readme"), 0)
	fmt.Println(string(body))
	// Output: # My App
}

func ExampleStore_Save() {
	dir, _ := os.MkdirTemp("", "sofa-example")
	defer os.RemoveAll(dir)

	s, _ := sofa.Open(filepath.Join(dir, "example.sofa"), sofa.ModeCreate, sofa.Config{})
	defer s.Close()

	s.Save(sofa.NewRecord([]byte("config")), []byte(`{"theme":"dark"}`), 0)
	seq, _ := s.Save(sofa.NewRecord([]byte("config")), []byte(`{"theme":"light"}`), 0)

	info, _ := s.GetInfo([]byte("config"))
	fmt.Println(seq, info.RevSequence)
	// Output: 2 2
}

func ExampleStore_Delete() {
	dir, _ := os.MkdirTemp("", "sofa-example")
	defer os.RemoveAll(dir)

	s, _ := sofa.Open(filepath.Join(dir, "example.sofa"), sofa.ModeCreate, sofa.Config{})
	defer s.Close()

	s.Save(sofa.NewRecord([]byte("draft")), []byte("text"), 0)
	s.Delete([]byte("draft"))

	_, err := s.Get([]byte("draft"), 0)
	fmt.Println(errors.Is(err, sofa.ErrNotFound))

	// The tombstone keeps its metadata
	info, _ := s.GetInfo([]byte("draft"))
	fmt.Println(info.Deleted, info.RevSequence)
	// Output:
	// true
	// true 2
}

func ExampleStore_SaveMultiple() {
	dir, _ := os.MkdirTemp("", "sofa-example")
	defer os.RemoveAll(dir)

	s, _ := sofa.Open(filepath.Join(dir, "example.sofa"), sofa.ModeCreate, sofa.Config{})
	defer s.Close()

	seqs, err := s.SaveMultiple([]sofa.Item{
		{Record: sofa.NewRecord([]byte("a")), Body: []byte("1")},
		{Record: sofa.NewRecord([]byte("b")), Body: []byte("2")},
		{Record: sofa.NewRecord([]byte("c"))}, // tombstone
	}, 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(seqs)
	// Output: [1 2 3]
}

func ExampleStore_ForEachChange() {
	dir, _ := os.MkdirTemp("", "sofa-example")
	defer os.RemoveAll(dir)

	s, _ := sofa.Open(filepath.Join(dir, "example.sofa"), sofa.ModeCreate, sofa.Config{})
	defer s.Close()

	s.Save(sofa.NewRecord([]byte("a")), []byte("1"), 0)
	s.Save(sofa.NewRecord([]byte("b")), []byte("2"), 0)
	s.Save(sofa.NewRecord([]byte("a")), []byte("3"), 0)

	// Only the latest version of each id is visited
	s.ForEachChange(0, func(info *sofa.DocumentInfo) bool {
		body, _ := info.Body(0)
		fmt.Printf("%d %s=%s\n", info.Sequence, info.ID, body)
		return true
	})
	// Output:
	// 2 b=2
	// 3 a=3
}

func ExampleStore_Changes() {
	dir, _ := os.MkdirTemp("", "sofa-example")
	defer os.RemoveAll(dir)

	s, _ := sofa.Open(filepath.Join(dir, "example.sofa"), sofa.ModeCreate, sofa.Config{})
	defer s.Close()

	for _, id := range []string{"x", "y", "z"} {
		s.Save(sofa.NewRecord([]byte(id)), []byte(id), 0)
	}

	for info, err := range s.Changes(1) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(info.ID))
	}
	// Output:
	// y
	// z
}

func ExampleExistingRecord() {
	dir, _ := os.MkdirTemp("", "sofa-example")
	defer os.RemoveAll(dir)

	s, _ := sofa.Open(filepath.Join(dir, "example.sofa"), sofa.ModeCreate, sofa.Config{})
	defer s.Close()

	// Replicate a revision with its metadata as given
	info := &sofa.DocumentInfo{ID: []byte("doc"), RevSequence: 7, RevMeta: []byte("7-abc")}
	s.Save(sofa.ExistingRecord(info), []byte("body"), 0)

	got, _ := s.GetInfo([]byte("doc"))
	fmt.Println(info.Sequence, got.RevSequence, string(got.RevMeta))
	// Output: 1 7 7-abc
}

func ExampleOpen_sqlite() {
	dir, _ := os.MkdirTemp("", "sofa-example")
	defer os.RemoveAll(dir)

	s, err := sofa.Open(filepath.Join(dir, "example.db"), sofa.ModeCreate, sofa.Config{
		Engine: sqlite.New(sqlite.Config{}),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	s.Save(sofa.NewRecord([]byte("greeting")), []byte("Hello, World!"), sofa.Compress)
	s.Commit()

	body, _ := s.Get([]byte("greeting"), sofa.Decompress)
	fmt.Println(string(body))
	// Output: Hello, World!
}

func ExampleOpen_missing() {
	_, err := sofa.Open(filepath.Join(os.TempDir(), "sofa-does-not-exist", "x.sofa"), sofa.ModeDefault, sofa.Config{})
	fmt.Println(errors.Is(err, sofa.ErrPathNotFound), errors.Is(err, os.ErrNotExist))
	// Output: true true
}
