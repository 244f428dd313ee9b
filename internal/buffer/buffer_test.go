package buffer

import "testing"

func TestBuffer(t *testing.T) {
	b := New()
	b.Write("Hello ")
	b.Write("")
	b.Write("<cha")
	if b.String() != "Hello <cha" || b.Len() != 10 || b.Chunks() != 2 {
		t.Errorf("got %q len=%d chunks=%d", b.String(), b.Len(), b.Chunks())
	}
	if !b.HasSuffix("<cha") {
		t.Error("HasSuffix(<cha) = false")
	}
	b.Reset()
	if b.String() != "" || b.Chunks() != 0 {
		t.Errorf("after Reset: %q chunks=%d", b.String(), b.Chunks())
	}
}
