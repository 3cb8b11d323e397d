package evaluator

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/ryuou/ryuou/cache"
	"github.com/ryuou/ryuou/config"
	"github.com/ryuou/ryuou/shogi"
)

const ioChunk = 1 << 15

var (
	ErrParamsSize = errors.New("parameter data has the wrong size")
)

// Params holds the positional weights. KPP is indexed
// [king][tri(i, j)], KKP [own king][other king][feature], both flattened.
type Params struct {
	KPP []int16
	KKP []int16
}

// NewParams returns zeroed tables of full size.
func NewParams() *Params {
	return &Params{
		KPP: make([]int16, KPPSize),
		KKP: make([]int16, KKPSize),
	}
}

// RandomParams fills tables with small deterministic noise in
// [-amplitude, amplitude]. It is used for testing and benchmarking the
// incremental evaluation.
func RandomParams(seed string, amplitude int) *Params {
	p := NewParams()
	s := make([]byte, 32)
	copy(s, seed)
	rng := frand.NewCustom(s, 1<<16, 8)
	buf := make([]byte, 1<<16)
	span := 2*amplitude + 1
	fill := func(dst []int16) {
		for len(dst) > 0 {
			rng.Read(buf)
			n := min(len(dst), len(buf))
			for i := 0; i < n; i++ {
				dst[i] = int16(int(buf[i])%span - amplitude)
			}
			dst = dst[n:]
		}
	}
	fill(p.KPP)
	fill(p.KKP)
	return p
}

func (p *Params) kpp(king, i, j int) int32 {
	return int32(p.KPP[king*TriSize+tri(i, j)])
}

func (p *Params) kkp(own, other, f int) int32 {
	return int32(p.KKP[(own*shogi.SquareNum+other)*FeatureNum+f])
}

// WriteTo streams KPP then KKP as little-endian int16 with no header.
func (p *Params) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 2*ioChunk)
	var n int64
	for _, t := range [][]int16{p.KPP, p.KKP} {
		for len(t) > 0 {
			c := min(len(t), ioChunk)
			for i, v := range t[:c] {
				binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
			}
			wn, err := w.Write(buf[:2*c])
			n += int64(wn)
			if err != nil {
				return n, err
			}
			t = t[c:]
		}
	}
	return n, nil
}

// WriteFile persists the parameters to path.
func (p *Params) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(f, 1<<16)
	if _, err := p.WriteTo(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadParams reads KPP then KKP from r, failing unless r holds exactly
// the expected number of values.
func ReadParams(r io.Reader) (*Params, error) {
	p := NewParams()
	br := bufio.NewReaderSize(r, 1<<16)
	buf := make([]byte, 2*ioChunk)
	for _, t := range [][]int16{p.KPP, p.KKP} {
		for len(t) > 0 {
			c := min(len(t), ioChunk)
			if _, err := io.ReadFull(br, buf[:2*c]); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil, ErrParamsSize
				}
				return nil, err
			}
			for i := range t[:c] {
				t[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
			}
			t = t[c:]
		}
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, ErrParamsSize
	}
	return p, nil
}

// LoadParams reads a parameter file.
func LoadParams(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := ReadParams(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Checksum is the xxhash of the serialized tables.
func (p *Params) Checksum() uint64 {
	d := xxhash.New()
	p.WriteTo(d)
	return d.Sum64()
}

func loadParamsFunc(cfg *config.Config, path string) (*Params, error) {
	p, err := LoadParams(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Str("checksum", fmt.Sprintf("%016x", p.Checksum())).
		Msg("eval-params-loaded")
	return p, nil
}

// ParamsFromConfig loads (once per path) the parameter file named in the
// config. A missing or malformed file is not fatal: it logs a warning and
// returns nil, which makes the evaluator material-only.
func ParamsFromConfig(cfg *config.Config) *Params {
	path := cfg.GetString(config.ConfigEvalParamsPath)
	if path == "" {
		return nil
	}
	p, err := cache.Load(cfg, path, loadParamsFunc)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("eval-params-unavailable-material-only")
		return nil
	}
	return p
}
