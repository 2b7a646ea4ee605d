package codeobj

import "testing"

func TestCodeObjectsAddGet(t *testing.T) {
	t.Parallel()
	table := NewCodeObjects()
	code := &Code{Kind: CodeKindBaseline, FctID: 7, Bytes: []byte{0xC3}}

	id := table.Add(code)
	if table.Get(id) != code {
		t.Fatalf("Get did not return the installed code object")
	}
	if table.Len() != 1 {
		t.Fatalf("expected Len() == 1, got %d", table.Len())
	}
}

func TestCodeObjectsGetUnknownIdPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unknown CodeId")
		}
	}()
	NewCodeObjects().Get(99)
}

func TestCodeMapLookup(t *testing.T) {
	t.Parallel()
	m := NewCodeMap()
	m.Insert(0x1000, 0x1010, 1)
	m.Insert(0x2000, 0x2020, 2)

	if id, ok := m.Lookup(0x1005); !ok || id != 1 {
		t.Fatalf("expected lookup to find id 1, got id=%v ok=%v", id, ok)
	}
	if id, ok := m.Lookup(0x2010); !ok || id != 2 {
		t.Fatalf("expected lookup to find id 2, got id=%v ok=%v", id, ok)
	}
	if _, ok := m.Lookup(0x1500); ok {
		t.Fatal("expected a miss in the gap between ranges")
	}
	if _, ok := m.Lookup(0x1010); ok {
		t.Fatal("end address should be exclusive")
	}
}

func TestCodeMapInsertOverlapPanics(t *testing.T) {
	t.Parallel()
	m := NewCodeMap()
	m.Insert(0x1000, 0x1010, 1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an overlapping insert")
		}
	}()
	m.Insert(0x1008, 0x1020, 2)
}

func TestCompilationDatabaseMemoizes(t *testing.T) {
	t.Parallel()
	db := NewCompilationDatabase()

	if _, ok := db.Lookup(3, "[]"); ok {
		t.Fatal("expected a miss before any Insert")
	}
	db.Insert(3, "[]", 42)
	if id, ok := db.Lookup(3, "[]"); !ok || id != 42 {
		t.Fatalf("expected to find id 42, got id=%v ok=%v", id, ok)
	}
	if db.Len() != 1 {
		t.Fatalf("expected Len() == 1, got %d", db.Len())
	}
}

func TestCompilationDatabaseDoubleInsertPanics(t *testing.T) {
	t.Parallel()
	db := NewCompilationDatabase()
	db.Insert(1, "[]", 1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a duplicate insert")
		}
	}()
	db.Insert(1, "[]", 2)
}
