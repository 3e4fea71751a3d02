package common

import "testing"

func TestOpTagValid(t *testing.T) {
	for tag := 0; tag < 256; tag++ {
		want := tag >= 1 && tag <= 5
		if got := OpTag(tag).Valid(); got != want {
			t.Errorf("OpTag(%d).Valid() = %t, want %t", tag, got, want)
		}
	}

	ops := []Operation{Read{}, Write{}, Delete{}, CreateNamespace{}, DeleteNamespace{}}
	for _, op := range ops {
		if !op.Tag().Valid() {
			t.Errorf("%T reports invalid tag %d", op, op.Tag())
		}
	}
}
