package iocli

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

// Тесты для Println и Printf — переадресуют в fmt.Println/Printf,
// здесь можно проверить просто, что вызовы не падают.
func TestPrintlnAndPrintf(t *testing.T) {
	stdio := NewStdio()

	assert.NotPanics(t, func() {
		stdio.Println("hello", "world")
	})
	assert.NotPanics(t, func() {
		stdio.Printf("test %d %s", 1, "abc")
	})
}

// withStdin подменяет os.Stdin на pipe с заданным вводом
func withStdin(t *testing.T, input string) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte(input))
		_ = w.Close()
	}()

	oldStdin := os.Stdin
	t.Cleanup(func() { os.Stdin = oldStdin })
	os.Stdin = r
}

func TestReadInput(t *testing.T) {
	input := "user input\n"
	withStdin(t, input)

	stdio := NewStdio()
	result, err := stdio.ReadInput("Prompt: ")
	assert.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(input), result)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect bool
	}{
		{"yes", "y\n", true},
		{"yes full word", "YES\n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"garbage defaults to no", "maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withStdin(t, tt.input)

			stdio := NewStdio()
			ok, err := stdio.Confirm("Delete?")
			assert.NoError(t, err)
			assert.Equal(t, tt.expect, ok)
		})
	}
}
