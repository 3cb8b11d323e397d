package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/ryuou/ryuou/config"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	calls := 0
	load := func(cfg *config.Config, key string) ([]int16, error) {
		calls++
		return []int16{1, 2, 3}, nil
	}
	a, err := Load(cfg, "params-a", load)
	is.NoErr(err)
	b, err := Load(cfg, "params-a", load)
	is.NoErr(err)
	is.Equal(calls, 1)
	is.Equal(&a[0], &b[0])

	Forget("params-a")
	_, err = Load(cfg, "params-a", load)
	is.NoErr(err)
	is.Equal(calls, 2)
}

func TestLoadErrorNotCached(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	boom := errors.New("boom")
	_, err := Load(cfg, "bad", func(*config.Config, string) (int, error) { return 0, boom })
	is.True(errors.Is(err, boom))
	v, err := Load(cfg, "bad", func(*config.Config, string) (int, error) { return 7, nil })
	is.NoErr(err)
	is.Equal(v, 7)

	_, err = Load(cfg, "bad", func(*config.Config, string) (string, error) { return "", nil })
	is.True(err != nil)
}
