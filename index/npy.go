package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var npyMagic = []byte("\x93NUMPY")

const npyAlign = 64

// writeNPY writes a rows×dim little-endian float32 matrix in NumPy v1.0 format.
func writeNPY(w io.Writer, data []float32, rows, dim int) error {
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", rows, dim)
	// magic(6) + version(2) + header length(2) + header + '\n' must be a multiple of 64
	preamble := len(npyMagic) + 4
	pad := npyAlign - (preamble+len(header)+1)%npyAlign
	if pad == npyAlign {
		pad = 0
	}
	header += string(bytes.Repeat([]byte{' '}, pad)) + "\n"
	if len(header) > math.MaxUint16 {
		return fmt.Errorf("npy header too long: %d bytes", len(header))
	}

	bw := bufio.NewWriter(w)
	bw.Write(npyMagic)
	bw.Write([]byte{1, 0})
	binary.Write(bw, binary.LittleEndian, uint16(len(header)))
	bw.WriteString(header)

	buf := make([]byte, 4)
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var (
	npyDescr   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	npyFortran = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	npyShape   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// maxNPYValues bounds rows*dim so the byte length of the data fits an int.
const maxNPYValues = math.MaxInt / 4

// npyReadChunk caps how many values are allocated ahead of the data that
// backs them, so a header promising more rows than the file holds fails on
// the short read instead of on the allocation.
const npyReadChunk = 1 << 16

// parseShape accepts a 2-D shape, or the 1-D (0,) NumPy writes for an
// empty matrix.
func parseShape(shape string) (rows, dim int, err error) {
	var dims []int
	for _, field := range strings.Split(shape, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return 0, 0, fmt.Errorf("shape value %q: %w", field, err)
		}
		if n < 0 {
			return 0, 0, fmt.Errorf("negative shape value %d", n)
		}
		dims = append(dims, n)
	}

	switch {
	case len(dims) == 1 && dims[0] == 0:
		return 0, 0, nil
	case len(dims) != 2:
		return 0, 0, fmt.Errorf("expected a 2-D shape, got %d dimensions", len(dims))
	}
	rows, dim = dims[0], dims[1]
	if rows > 0 && dim == 0 {
		return 0, 0, fmt.Errorf("shape (%d, 0) has no columns", rows)
	}
	if rows > 0 && dim > maxNPYValues/rows {
		return 0, 0, fmt.Errorf("shape (%d, %d) is too large", rows, dim)
	}
	return rows, dim, nil
}

// readNPY reads a 2-D little-endian float32 C-order matrix.
func readNPY(r io.Reader) (data []float32, rows, dim int, err error) {
	br := bufio.NewReader(r)

	preamble := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(br, preamble); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInvalidMatrix, err)
	}
	if !bytes.Equal(preamble[:len(npyMagic)], npyMagic) {
		return nil, 0, 0, fmt.Errorf("%w: bad magic", ErrInvalidMatrix)
	}

	var headerLen int
	switch major := preamble[len(npyMagic)]; major {
	case 1:
		var n uint16
		err = binary.Read(br, binary.LittleEndian, &n)
		headerLen = int(n)
	case 2, 3:
		var n uint32
		err = binary.Read(br, binary.LittleEndian, &n)
		headerLen = int(n)
	default:
		return nil, 0, 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidMatrix, major)
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInvalidMatrix, err)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: header: %w", ErrInvalidMatrix, err)
	}

	if m := npyDescr.FindSubmatch(header); m == nil || string(m[1]) != "<f4" {
		return nil, 0, 0, fmt.Errorf("%w: expected little-endian float32 data", ErrInvalidMatrix)
	}
	if m := npyFortran.FindSubmatch(header); m == nil || string(m[1]) != "False" {
		return nil, 0, 0, fmt.Errorf("%w: expected C-order data", ErrInvalidMatrix)
	}
	m := npyShape.FindSubmatch(header)
	if m == nil {
		return nil, 0, 0, fmt.Errorf("%w: missing shape", ErrInvalidMatrix)
	}
	rows, dim, err = parseShape(string(m[1]))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", ErrInvalidMatrix, err)
	}

	total := rows * dim
	data = make([]float32, 0, min(total, npyReadChunk))
	buf := make([]byte, 4)
	for i := 0; i < total; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: value %d of %d: %w", ErrInvalidMatrix, i, total, err)
		}
		data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	}
	return data, rows, dim, nil
}
