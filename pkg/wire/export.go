package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/errors"
	"github.com/edalab/copperview/pkg/tess"
)

// Magic identifies a serialized geometry buffer. The trailing byte is
// the format version.
var Magic = [8]byte{'C', 'V', 'G', 'E', 'O', 0, 0, 1}

// LOD record flags.
const (
	flagHasAlphas    = 1 << 0
	flagHasInstances = 1 << 1
)

// Section instance strides, fixed per render class.
const (
	strideRotated  = 3 // x, y, packed rotation
	strideTranslat = 2 // x, y
)

// LayerBuffer is the decoded form of one layer's geometry buffer.
// Field layout mirrors [tess.ShaderGeometry] plus the layer identity
// carried in the frame header.
type LayerBuffer struct {
	ID           string
	Name         string
	Color        [4]float32
	Batch        []tess.GeometryLOD
	BatchColored []tess.GeometryLOD
	InstancedRot []tess.GeometryLOD
	Instanced    []tess.GeometryLOD
}

// EncodeLayer writes one layer's geometry buffer to w.
// The layout is a hard contract: consumers map the buffer directly onto
// typed array views, so field order and 4-byte alignment must not change.
func EncodeLayer(w io.Writer, lg *tess.LayerGeometry, color board.Color) error {
	e := &encoder{w: w}
	e.bytes(Magic[:])
	e.paddedString(lg.ID)
	e.paddedString(lg.Name)
	e.f32(color.R)
	e.f32(color.G)
	e.f32(color.B)
	e.f32(color.A)

	e.section(lg.Shader.Batch)
	e.section(lg.Shader.BatchColored)
	e.section(lg.Shader.InstancedRot)
	e.section(lg.Shader.Instanced)

	if e.err != nil {
		return errors.Wrap(errors.ErrCodeEncoding, e.err, "encode layer %s", lg.ID)
	}
	return nil
}

// EncodeGeometry writes all layers of an assembled board as a layer
// count followed by concatenated layer buffers.
func EncodeGeometry(w io.Writer, layers []*tess.LayerGeometry, color board.Color) error {
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(layers)))
	if _, err := w.Write(count[:]); err != nil {
		return errors.Wrap(errors.ErrCodeEncoding, err, "encode layer count")
	}
	for _, lg := range layers {
		if err := EncodeLayer(w, lg, color); err != nil {
			return err
		}
	}
	return nil
}

// ExportGeometry writes the geometry buffer to a file at path.
func ExportGeometry(path string, layers []*tess.LayerGeometry, color board.Color) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEncoding, err, "create %s", path)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	if err := EncodeGeometry(buf, layers, color); err != nil {
		return err
	}
	return buf.Flush()
}

// DecodeLayer reads one layer buffer from r, reversing [EncodeLayer].
func DecodeLayer(r io.Reader) (*LayerBuffer, error) {
	d := &decoder{r: r}

	var magic [8]byte
	d.bytes(magic[:])
	if d.err == nil && magic != Magic {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "bad magic %q", magic[:])
	}

	lb := &LayerBuffer{}
	lb.ID = d.paddedString()
	lb.Name = d.paddedString()
	for i := range lb.Color {
		lb.Color[i] = d.f32()
	}

	lb.Batch = d.section(0)
	lb.BatchColored = d.section(0)
	lb.InstancedRot = d.section(strideRotated)
	lb.Instanced = d.section(strideTranslat)

	if d.err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, d.err, "decode layer buffer")
	}
	return lb, nil
}

// DecodeGeometry reads a multi-layer buffer written by [EncodeGeometry].
func DecodeGeometry(r io.Reader) ([]*LayerBuffer, error) {
	var count [4]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layer count")
	}
	n := binary.LittleEndian.Uint32(count[:])

	layers := make([]*LayerBuffer, 0, n)
	for i := uint32(0); i < n; i++ {
		lb, err := DecodeLayer(r)
		if err != nil {
			return nil, err
		}
		layers = append(layers, lb)
	}
	return layers, nil
}

// =============================================================================
// Encoder
// =============================================================================

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) bytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.bytes(b[:])
}

func (e *encoder) f32(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	e.bytes(b[:])
}

// paddedString writes a length-prefixed string padded to 4-byte alignment.
func (e *encoder) paddedString(s string) {
	e.u32(uint32(len(s)))
	e.bytes([]byte(s))
	if pad := padTo4(len(s)); pad > 0 {
		e.bytes(make([]byte, pad))
	}
}

func (e *encoder) f32slice(vals []float32) {
	if len(vals) == 0 {
		return
	}
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	e.bytes(b)
}

func (e *encoder) u32slice(vals []uint32) {
	if len(vals) == 0 {
		return
	}
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	e.bytes(b)
}

func (e *encoder) section(lods []tess.GeometryLOD) {
	e.u32(uint32(len(lods)))
	for _, lod := range lods {
		var flags byte
		if len(lod.Alphas) > 0 {
			flags |= flagHasAlphas
		}
		if len(lod.Instances) > 0 {
			flags |= flagHasInstances
		}

		// The first count is floats, not 2D vertices: positions are
		// interleaved x,y, so readers see twice the vertex count.
		e.u32(uint32(len(lod.Vertices)))
		e.u32(uint32(len(lod.Indices)))
		e.bytes([]byte{flags, 0, 0, 0})
		e.f32slice(lod.Vertices)
		e.u32slice(lod.Indices)
		if flags&flagHasAlphas != 0 {
			e.f32slice(lod.Alphas)
		}
		if flags&flagHasInstances != 0 {
			e.u32(uint32(lod.InstanceCount()))
			e.f32slice(lod.Instances)
		}
	}
}

// =============================================================================
// Decoder
// =============================================================================

type decoder struct {
	r   io.Reader
	err error
}

// maxSliceLen bounds decoded element counts so a corrupt length prefix
// cannot trigger a huge allocation.
const maxSliceLen = 1 << 28

func (d *decoder) bytes(b []byte) {
	if d.err != nil {
		return
	}
	_, d.err = io.ReadFull(d.r, b)
}

func (d *decoder) u32() uint32 {
	var b [4]byte
	d.bytes(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

func (d *decoder) f32() float32 {
	return math.Float32frombits(d.u32())
}

func (d *decoder) count() int {
	n := d.u32()
	if d.err == nil && n > maxSliceLen {
		d.err = fmt.Errorf("length prefix %d too large", n)
	}
	if d.err != nil {
		return 0
	}
	return int(n)
}

func (d *decoder) paddedString() string {
	n := d.count()
	b := make([]byte, n+padTo4(n))
	d.bytes(b)
	if d.err != nil {
		return ""
	}
	return string(b[:n])
}

func (d *decoder) f32slice(n int) []float32 {
	if d.err != nil || n == 0 {
		return nil
	}
	b := make([]byte, 4*n)
	d.bytes(b)
	if d.err != nil {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func (d *decoder) u32slice(n int) []uint32 {
	if d.err != nil || n == 0 {
		return nil
	}
	b := make([]byte, 4*n)
	d.bytes(b)
	if d.err != nil {
		return nil
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out
}

func (d *decoder) section(stride int) []tess.GeometryLOD {
	n := d.count()
	lods := make([]tess.GeometryLOD, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		floatCount := d.count()
		indexCount := d.count()
		var flagRec [4]byte
		d.bytes(flagRec[:])
		flags := flagRec[0]

		lod := tess.GeometryLOD{
			Vertices: d.f32slice(floatCount),
			Indices:  d.u32slice(indexCount),
		}
		if flags&flagHasAlphas != 0 {
			// One alpha per 2D vertex, half the interleaved float count.
			lod.Alphas = d.f32slice(floatCount / 2)
		}
		if flags&flagHasInstances != 0 {
			instances := d.count()
			lod.Instances = d.f32slice(instances * stride)
			lod.InstanceStride = stride
		}
		lods = append(lods, lod)
	}
	return lods
}

func padTo4(n int) int {
	return (4 - n%4) % 4
}
