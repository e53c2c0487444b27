package monitoring

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	var got []string
	original := SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	defer SetLogger(original)

	Logf("section %s", "about")
	assert.Equal(t, []string{"section about"}, got)

	SetLogger(nil)
	Logf("muted")
	assert.Len(t, got, 1, "nil logger must mute output")
}

func TestDebugf_RespectsVerbose(t *testing.T) {
	calls := 0
	original := SetLogger(func(string, ...interface{}) { calls++ })
	defer func() {
		SetLogger(original)
		SetVerbose(false)
	}()

	Debugf("hidden")
	assert.Equal(t, 0, calls)

	SetVerbose(true)
	Debugf("shown %d", 1)
	assert.Equal(t, 1, calls)
}

func TestLogger_ConcurrentUse(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	count := func(string, ...interface{}) {
		mu.Lock()
		calls++
		mu.Unlock()
	}
	original := SetLogger(count)
	defer func() {
		SetLogger(original)
		SetVerbose(false)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetVerbose(j%2 == 0)
				Debugf("frame %d", j)
				if i == 0 && j%10 == 0 {
					SetLogger(count)
				}
			}
		}(i)
	}
	wg.Wait()

	SetVerbose(true)
	Debugf("done")
	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, calls)
}
