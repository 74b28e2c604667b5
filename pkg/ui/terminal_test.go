package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Error("Failed to load configuration", errors.New("boom"))
	p.Error("No stored accounts found", "")
	p.Warning("Credentials missing")
	p.Success("done")
	p.Info("Output", "photos.csv")
	p.Highlight("Stored Accounts")

	assert.Equal(t, "Failed to load configuration: boom\n"+
		"No stored accounts found\n"+
		"Credentials missing\n"+
		"done\n"+
		"Output: photos.csv\n"+
		"Stored Accounts\n", buf.String())
}

func TestPrinterColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.SetColor(true)

	p.Success("ok")
	assert.Equal(t, "\033[32mok\033[0m\n", buf.String())
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Table([][2]string{
		{"Photos", "12"},
		{"Duplicates", "3"},
	})

	assert.Equal(t, "  Photos:     12\n  Duplicates: 3\n", buf.String())
}
