package screen

import (
	"strings"
	"testing"

	"github.com/stlalpha/petscii/internal/charset"
	"github.com/stlalpha/petscii/internal/palette"
)

func TestDisplayDefaults(t *testing.T) {
	d, err := NewDisplay(DefaultWidth, DefaultHeight)
	if err != nil {
		t.Fatalf("NewDisplay failed: %v", err)
	}
	if d.BorderColor() != palette.LightBlue || d.BackgroundColor() != palette.Blue || d.CursorColor() != palette.LightBlue {
		t.Errorf("unexpected default colors %d/%d/%d", d.BorderColor(), d.BackgroundColor(), d.CursorColor())
	}
	if !d.ScreenRAMEnabled() || !d.ColorRAMEnabled() {
		t.Error("both RAMs should start enabled")
	}
}

func TestDisplaySettersIgnoreInvalidColors(t *testing.T) {
	d, _ := NewDisplay(4, 4)
	d.SetBorderColor(2)
	d.SetBorderColor(16)
	d.SetBackgroundColor(0)
	d.SetBackgroundColor(-1)
	d.SetCursorColor(7)
	d.SetCursorColor(100)

	if d.BorderColor() != 2 || d.BackgroundColor() != 0 || d.CursorColor() != 7 {
		t.Errorf("colors = %d/%d/%d, want 2/0/7", d.BorderColor(), d.BackgroundColor(), d.CursorColor())
	}
}

func TestDisplayCellColorFollowsColorRAMSwitch(t *testing.T) {
	d, _ := NewDisplay(4, 4)
	d.SetCursorColor(palette.Yellow)
	d.PutColor(palette.Red, 3)

	if got := d.CellColor(3); got != palette.Red {
		t.Errorf("CellColor = %d, want red", got)
	}
	d.SetColorRAMEnabled(false)
	if got := d.CellColor(3); got != palette.Yellow {
		t.Errorf("CellColor with color RAM off = %d, want cursor color", got)
	}
}

func TestDisplayResetUsesCursorColor(t *testing.T) {
	d, _ := NewDisplay(3, 2)
	d.SetCursorColor(palette.Green)
	d.PrintText("abc", 0, 1)
	d.Reset()
	for i, c := range d.Colors() {
		if c != palette.Green {
			t.Fatalf("color %d = %d after reset", i, c)
		}
	}
	if d.Row(0) != "   " {
		t.Errorf("Row(0) = %q after reset", d.Row(0))
	}
}

func TestDisplayCloneIsIndependent(t *testing.T) {
	d, _ := NewDisplay(3, 2)
	cp := d.Clone()
	d.PutChar('Z', 0)
	d.SetBorderColor(0)
	if ch, _ := cp.CharAt(0); ch != ' ' {
		t.Error("clone shares screen RAM")
	}
	if cp.BorderColor() == 0 {
		t.Error("clone shares border color")
	}
}

func TestPrintTestPicture(t *testing.T) {
	d, _ := NewDisplay(DefaultWidth, DefaultHeight)
	d.PrintTestPicture("1.0")

	if !strings.Contains(d.Row(1), "**** PETSCII 1.0 ****") {
		t.Errorf("title row = %q", d.Row(1))
	}
	if ch, _ := d.CharAt(6 * DefaultWidth); ch != charset.Char(charset.Uppercase, 0) {
		t.Errorf("uppercase map should start at row 6, got %U", ch)
	}
	if ch, _ := d.CharAt(17*DefaultWidth + 255); ch != charset.Char(charset.Lowercase, 255) {
		t.Errorf("lowercase map should end at row 17 + 255, got %U", ch)
	}
}
