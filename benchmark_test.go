package guardar

import (
	"context"
	"fmt"
	"testing"
)

func benchStore(b *testing.B, fields int) *Store {
	b.Helper()
	s, err := New(context.Background(), NewMemory())
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < fields; i++ {
		if err := s.SetField(context.Background(), fmt.Sprintf("field%d", i), i); err != nil {
			b.Fatal(err)
		}
	}
	return s
}

func BenchmarkStore_SetField(b *testing.B) {
	s := benchStore(b, 100)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.SetField(ctx, "field50", i)
	}
}

func BenchmarkStore_GetField(b *testing.B) {
	s := benchStore(b, 100)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.GetField(ctx, "field50")
	}
}

func BenchmarkStore_Keys(b *testing.B) {
	s := benchStore(b, 100)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Keys(ctx)
	}
}

func BenchmarkStore_ConcurrentSetField(b *testing.B) {
	s := benchStore(b, 10)
	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = s.SetField(ctx, "field1", i)
			i++
		}
	})
}

func BenchmarkParseObject(b *testing.B) {
	s := benchStore(b, 100)
	raw, _, _ := s.backend.GetItem(context.Background(), DefaultRootKey)
	data := []byte(raw)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseObject(data); err != nil {
			b.Fatal(err)
		}
	}
}
