// Package linalg assembles sparse rectangular systems and solves them in the
// least-squares sense.
package linalg

import "sort"

type entry struct {
	col int
	val float64
}

// Matrix is a sparse row-major matrix. Rows keep their entries sorted by
// column so every traversal is deterministic.
type Matrix struct {
	rows, cols int
	data       [][]entry
}

// NewMatrix returns an all-zero rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([][]entry, rows)}
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) find(i, j int) (int, bool) {
	row := m.data[i]
	k := sort.Search(len(row), func(k int) bool { return row[k].col >= j })
	return k, k < len(row) && row[k].col == j
}

// Set stores v at (i, j), replacing any previous value.
func (m *Matrix) Set(i, j int, v float64) {
	k, ok := m.find(i, j)
	if ok {
		m.data[i][k].val = v
		return
	}
	row := append(m.data[i], entry{})
	copy(row[k+1:], row[k:])
	row[k] = entry{col: j, val: v}
	m.data[i] = row
}

// Add accumulates v into (i, j).
func (m *Matrix) Add(i, j int, v float64) {
	k, ok := m.find(i, j)
	if ok {
		m.data[i][k].val += v
		return
	}
	m.Set(i, j, v)
}

func (m *Matrix) At(i, j int) float64 {
	if k, ok := m.find(i, j); ok {
		return m.data[i][k].val
	}
	return 0
}

// NonZeros counts stored entries.
func (m *Matrix) NonZeros() int {
	n := 0
	for _, row := range m.data {
		n += len(row)
	}
	return n
}

// MulVec returns A·x.
func (m *Matrix) MulVec(x []float64) []float64 {
	y := make([]float64, m.rows)
	for i, row := range m.data {
		var s float64
		for _, e := range row {
			s += e.val * x[e.col]
		}
		y[i] = s
	}
	return y
}

// MulTransVec returns Aᵀ·b.
func (m *Matrix) MulTransVec(b []float64) []float64 {
	y := make([]float64, m.cols)
	for i, row := range m.data {
		for _, e := range row {
			y[e.col] += e.val * b[i]
		}
	}
	return y
}

// normal returns AᵀA as sparse rows sorted by column.
func (m *Matrix) normal() [][]entry {
	acc := make([]map[int]float64, m.cols)
	for _, row := range m.data {
		for _, p := range row {
			if acc[p.col] == nil {
				acc[p.col] = make(map[int]float64)
			}
			for _, q := range row {
				acc[p.col][q.col] += p.val * q.val
			}
		}
	}
	out := make([][]entry, m.cols)
	for j, r := range acc {
		for col, v := range r {
			out[j] = append(out[j], entry{col: col, val: v})
		}
		sort.Slice(out[j], func(a, b int) bool { return out[j][a].col < out[j][b].col })
	}
	return out
}
