// Package report renders the pipeline's tables and figures: rates by
// stratum, determination contrasts, agreement rates, the model
// ranking, calibration, and the ROC/calibration plots.
package report

import (
	"bytes"
	"fmt"
	"strings"
)

// Fmter formats the elements of an array of values.
type Fmter func(interface{}, string) []string

// Table holds one rendered report table.
type Table struct {

	// Title
	Title string

	// Column names
	ColNames []string

	// Formatters for the column values
	ColFmt []Fmter

	// Cols[j] is the j^th column.  Its concrete type should be an
	// array, e.g. of numbers or strings.
	Cols []interface{}

	// Values at the top of the table
	Top []string

	// Messages displayed below the table
	Msg []string

	// Total width of the table
	tw int
}

// Draw a line constructed of the given character filling the width of
// the table.
func (s *Table) line(c string) string {
	return strings.Repeat(c, s.tw) + "\n"
}

// cleanTop ensures that all fields in the top part of the table have
// the same width.
func (s *Table) cleanTop() {

	w := 0
	for _, x := range s.Top {
		if len(x) > w {
			w = len(x)
		}
	}

	for i, x := range s.Top {
		if len(x) < w {
			s.Top[i] = x + strings.Repeat(" ", w-len(x))
		}
	}
}

// Construct the upper part of the table, which contains summary
// values for the run.
func (s *Table) top(gap int) string {

	w := []int{0, 0}

	for j, x := range s.Top {
		if len(x) > w[j%2] {
			w[j%2] = len(x)
		}
	}

	var b bytes.Buffer

	for j, x := range s.Top {
		c := fmt.Sprintf("%%-%ds", w[j%2])
		b.Write([]byte(fmt.Sprintf(c, x)))
		if j%2 == 1 {
			b.Write([]byte("\n"))
		} else {
			b.Write([]byte(strings.Repeat(" ", gap)))
		}
	}

	if len(s.Top)%2 == 1 {
		b.Write([]byte("\n"))
	}

	return b.String()
}

// String returns the table as a string.
func (s *Table) String() string {

	s.cleanTop()

	var tab [][]string
	var wx []int
	for j, c := range s.Cols {
		u := s.ColFmt[j](c, s.ColNames[j])
		tab = append(tab, u)
		w := len(s.ColNames[j])
		for _, v := range u {
			if len(v) > w {
				w = len(v)
			}
		}
		wx = append(wx, w)
	}

	gap := 10

	// Get the total width of the table
	s.tw = 0
	for _, w := range wx {
		s.tw += w
	}
	if s.tw < len(s.Title) {
		s.tw = len(s.Title)
	}
	if len(s.Top) > 0 && s.tw < gap+2*len(s.Top[0]) {
		s.tw = gap + 2*len(s.Top[0])
	}

	var buf bytes.Buffer

	// Center the title
	k := len(s.Title)
	kr := (s.tw - k) / 2
	if kr < 0 {
		kr = 0
	}
	buf.Write([]byte(strings.Repeat(" ", kr)))
	buf.Write([]byte(s.Title))
	buf.Write([]byte("\n"))

	buf.Write([]byte(s.line("=")))
	if len(s.Top) > 0 {
		buf.Write([]byte(s.top(gap)))
		buf.Write([]byte(s.line("-")))
	}

	for j, c := range s.ColNames {
		f := fmt.Sprintf("%%%ds", wx[j])
		buf.Write([]byte(fmt.Sprintf(f, c)))
	}
	buf.Write([]byte("\n"))
	buf.Write([]byte(s.line("-")))

	for i := 0; i < len(tab[0]); i++ {
		for j := 0; j < len(tab); j++ {
			f := fmt.Sprintf("%%%ds", wx[j])
			buf.Write([]byte(fmt.Sprintf(f, tab[j][i])))
		}
		buf.Write([]byte("\n"))
	}
	buf.Write([]byte(s.line("-")))

	for _, msg := range s.Msg {
		buf.Write([]byte(msg + "\n"))
	}

	return buf.String()
}

// StringFmt left-justifies a string column, padded to the widest
// entry.
func StringFmt(x interface{}, h string) []string {
	y := x.([]string)
	m := len(h)
	for i := range y {
		if len(y[i]) > m {
			m = len(y[i])
		}
	}
	var z []string
	for i := range y {
		c := fmt.Sprintf("%%-%ds", m)
		z = append(z, fmt.Sprintf(c, y[i]))
	}
	return z
}

// NumberFmt formats a float column with four decimals.
func NumberFmt(x interface{}, h string) []string {
	y := x.([]float64)
	var s []string
	for i := range y {
		s = append(s, fmt.Sprintf("%10.4f", y[i]))
	}
	return s
}

// CountFmt formats a weighted-count column with one decimal.
func CountFmt(x interface{}, h string) []string {
	y := x.([]float64)
	var s []string
	for i := range y {
		s = append(s, fmt.Sprintf("%10.1f", y[i]))
	}
	return s
}

// IntFmt formats an integer column.
func IntFmt(x interface{}, h string) []string {
	y := x.([]int)
	var s []string
	for i := range y {
		s = append(s, fmt.Sprintf("%8d", y[i]))
	}
	return s
}

// rateVal is a rate with its defined flag; undefined rates render as
// NA rather than a number.
type rateVal struct {
	v  float64
	ok bool
}

// RateFmt formats a column of rateVal, rendering undefined entries as
// NA.
func RateFmt(x interface{}, h string) []string {
	y := x.([]rateVal)
	var s []string
	for i := range y {
		if y[i].ok {
			s = append(s, fmt.Sprintf("%10.4f", y[i].v))
		} else {
			s = append(s, fmt.Sprintf("%10s", "NA"))
		}
	}
	return s
}
