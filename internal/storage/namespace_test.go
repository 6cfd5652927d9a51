package storage

import (
	"errors"
	"testing"
)

func TestNamespace_RoundTrip(t *testing.T) {
	ns, err := NewNamespace(NewMemory(), "mainnet")
	if err != nil {
		t.Fatal(err)
	}
	if ns.Name() != "mainnet" {
		t.Errorf("Name = %q", ns.Name())
	}

	if err := ns.Put([]byte("t/1"), []byte("one")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := ns.Get([]byte("t/1"))
	if err != nil || string(got) != "one" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if ok, _ := ns.Has([]byte("t/1")); !ok {
		t.Error("Has = false after Put")
	}
	if err := ns.Delete([]byte("t/1")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ns.Get([]byte("t/1")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: %v", err)
	}
}

func TestNamespace_Isolation(t *testing.T) {
	shared := NewMemory()
	main, _ := NewNamespace(shared, "mainnet")
	test, _ := NewNamespace(shared, "testnet")

	main.Put([]byte("t/a"), []byte("main"))
	test.Put([]byte("t/a"), []byte("test"))
	test.Put([]byte("t/b"), []byte("test"))

	got, _ := main.Get([]byte("t/a"))
	if string(got) != "main" {
		t.Errorf("mainnet value = %q", got)
	}

	var keys []string
	test.ForEach([]byte("t/"), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	if len(keys) != 2 || keys[0] != "t/a" || keys[1] != "t/b" {
		t.Errorf("testnet keys = %v", keys)
	}

	// The raw store sees the namespaced keys.
	if ok, _ := shared.Has([]byte("testnet/t/b")); !ok {
		t.Error("inner store missing namespaced key")
	}
}

func TestNamespace_Clear(t *testing.T) {
	shared := NewMemory()
	main, _ := NewNamespace(shared, "mainnet")
	test, _ := NewNamespace(shared, "testnet")
	for _, k := range []string{"x", "y", "z"} {
		main.Put([]byte(k), []byte("v"))
	}
	test.Put([]byte("x"), []byte("v"))

	n, err := main.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("cleared %d keys, want 3", n)
	}
	if ok, _ := main.Has([]byte("x")); ok {
		t.Error("mainnet key survived Clear")
	}
	if ok, _ := test.Has([]byte("x")); !ok {
		t.Error("Clear removed another namespace's key")
	}
}

func TestNamespace_BadName(t *testing.T) {
	for _, name := range []string{"", "a/b"} {
		if _, err := NewNamespace(NewMemory(), name); err == nil {
			t.Errorf("NewNamespace(%q) should fail", name)
		}
	}
}
