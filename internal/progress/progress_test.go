package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar_ConcurrentIncrements(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.Start("Rendering frames", 200)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bar.Increment()
			}
		}()
	}
	wg.Wait()
	bar.Finish()

	assert.Equal(t, 200, bar.Done())
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\rRendering frames"))
	assert.Contains(t, out, "200/200")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestBar_Throttles(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.Start("x", 1000)
	for i := 0; i < 1000; i++ {
		bar.Increment()
	}

	// one line per whole percent plus the initial draw
	assert.LessOrEqual(t, strings.Count(buf.String(), "\r"), 102)
}

func TestBar_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)
	bar.Start("x", 0)
	bar.Increment()
	bar.Finish()
	assert.Empty(t, buf.String())
}

func TestNop(t *testing.T) {
	r := Nop()
	r.Start("x", 10)
	r.Increment()
	r.Finish()
}
