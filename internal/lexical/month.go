// Package lexical turns messy spreadsheet text into canonical keys.
//
// Every function here is pure: unknown input yields a zero value plus false
// (or a documented fallback) and never an error.
package lexical

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type monthName struct {
	name string
	num  int
}

// Substring search walks this slice in order, so full names precede their abbreviations.
var monthTable = []monthName{
	{"january", 1}, {"jan", 1},
	{"february", 2}, {"feb", 2},
	{"march", 3}, {"mar", 3},
	{"april", 4}, {"apr", 4},
	{"may", 5},
	{"june", 6}, {"jun", 6},
	{"july", 7}, {"jul", 7},
	{"august", 8}, {"aug", 8},
	{"september", 9}, {"sep", 9}, {"sept", 9},
	{"october", 10}, {"oct", 10},
	{"november", 11}, {"nov", 11},
	{"december", 12}, {"dec", 12},
}

var monthShort = []string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var monthNumberRe = regexp.MustCompile(`\b(1[0-2]|0?[1-9])\b`)

// MonthToNumber resolves a month label: exact name, then a name contained in the
// text, then a standalone number 1-12.
func MonthToNumber(text string) (int, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	key := strings.ToLower(s)
	for _, m := range monthTable {
		if key == m.name {
			return m.num, true
		}
	}
	for _, m := range monthTable {
		if strings.Contains(key, m.name) {
			return m.num, true
		}
	}
	if g := monthNumberRe.FindStringSubmatch(s); g != nil {
		n, _ := strconv.Atoi(g[1])
		return n, true
	}
	return 0, false
}

// MonthFromSheetName tries the whole tab name, then its first word.
func MonthFromSheetName(name string) (int, bool) {
	if m, ok := MonthToNumber(name); ok {
		return m, true
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return 0, false
	}
	return MonthToNumber(fields[0])
}

// MonthAbbrev returns "Jan".."Dec", or the zero-padded number when m is out of range.
func MonthAbbrev(m int) string {
	if m >= 1 && m <= 12 {
		return monthShort[m]
	}
	return fmt.Sprintf("%02d", m)
}

// DaysIn returns the number of days of month m in year.
func DaysIn(year, m int) int {
	if m < 1 || m > 12 {
		return 0
	}
	switch m {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	}
	return 31
}

// ISODate formats year/month/day as 2006-01-02.
func ISODate(year, m, d int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, m, d)
}
