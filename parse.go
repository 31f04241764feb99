/*
 * parse.go, part of gochemfiles.
 *
 * Copyright 2024 The gochemfiles developers
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chemfiles

import "math"

//Text parsing helpers for the file formats. Only ASCII digits are accepted,
//whatever the system locale says: files written on one machine must parse
//the same on any other. NaN and infinities are always rejected.

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

func trimSpace(s string) (string, int) {
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end], start
}

// ParseInt parses a signed decimal integer from s. Leading and trailing
// ASCII whitespace is allowed, anything else around the number is a parse
// error; values outside the int64 range are a range error.
func ParseInt(s string) (int64, error) {
	body, _ := trimSpace(s)
	if body == "" {
		return 0, NewError(ErrParse, "can not parse an integer from %q", s)
	}
	i := 0
	negative := false
	if body[i] == '-' {
		negative = true
		i++
	} else if body[i] == '+' {
		i++
	}
	start := i
	var result int64
	for ; i < len(body) && isDigit(body[i]); i++ {
		digit := int64(body[i] - '0')
		if negative {
			if result < (math.MinInt64+digit)/10 {
				return 0, NewError(ErrRange, "%q is out of range for a 64-bit integer", s)
			}
			result = result*10 - digit
		} else {
			if result > (math.MaxInt64-digit)/10 {
				return 0, NewError(ErrRange, "%q is out of range for a 64-bit integer", s)
			}
			result = result*10 + digit
		}
	}
	if i == start || i != len(body) {
		return 0, NewError(ErrParse, "can not parse %q as an integer", s)
	}
	return result, nil
}

// ParseUint parses an unsigned decimal integer from s, with the same
// whitespace rules as ParseInt. A leading '+' is allowed, '-' is not.
func ParseUint(s string) (uint64, error) {
	body, _ := trimSpace(s)
	if body == "" {
		return 0, NewError(ErrParse, "can not parse an integer from %q", s)
	}
	i := 0
	if body[i] == '+' {
		i++
	}
	start := i
	var result uint64
	for ; i < len(body) && isDigit(body[i]); i++ {
		digit := uint64(body[i] - '0')
		if result > (math.MaxUint64-digit)/10 {
			return 0, NewError(ErrRange, "%q is out of range for a 64-bit unsigned integer", s)
		}
		result = result*10 + digit
	}
	if i == start || i != len(body) {
		return 0, NewError(ErrParse, "can not parse %q as a positive integer", s)
	}
	return result, nil
}

// ParseFloat parses a floating point value from s. The accepted grammar is
// (+|-)? digits (. digits)? ((e|E) (+|-)? digits)? with optional surrounding
// ASCII whitespace. NaN, infinities and hexadecimal floats are rejected.
func ParseFloat(s string) (float64, error) {
	body, _ := trimSpace(s)
	if body == "" {
		return 0, NewError(ErrParse, "can not parse a double from %q", s)
	}
	i := 0
	sign := 1.0
	if body[i] == '-' {
		sign = -1.0
		i++
	} else if body[i] == '+' {
		i++
	}

	digitStart := i
	value := 0.0
	for ; i < len(body) && isDigit(body[i]); i++ {
		value = value*10 + float64(body[i]-'0')
	}
	gotDigits := i != digitStart

	if i < len(body) && body[i] == '.' {
		i++
		fracStart := i
		pow10 := 10.0
		for ; i < len(body) && isDigit(body[i]); i++ {
			value += float64(body[i]-'0') / pow10
			pow10 *= 10
		}
		gotDigits = gotDigits || i != fracStart
	}

	frac := false
	scale := 1.0
	if i < len(body) && (body[i] == 'e' || body[i] == 'E') {
		i++
		expStart := i
		if i < len(body) && body[i] == '-' {
			frac = true
			i++
		} else if i < len(body) && body[i] == '+' {
			i++
		}
		expon := 0
		for ; i < len(body) && isDigit(body[i]); i++ {
			expon = expon*10 + int(body[i]-'0')
			if expon > 308 {
				return 0, NewError(ErrRange, "%q is out of range for a double", s)
			}
		}
		if i == expStart || !isDigit(body[i-1]) {
			return 0, NewError(ErrParse, "missing exponent in %q", s)
		}
		for expon >= 50 {
			scale *= 1e50
			expon -= 50
		}
		for expon >= 8 {
			scale *= 1e8
			expon -= 8
		}
		for expon > 0 {
			scale *= 1e1
			expon--
		}
	}

	if i != len(body) || !gotDigits {
		return 0, NewError(ErrParse, "can not parse %q as a double", s)
	}
	result := sign * value * scale
	if frac {
		result = sign * value / scale
	}
	if math.IsInf(result, 0) {
		return 0, NewError(ErrRange, "%q is out of range for a double", s)
	}
	return result, nil
}

// Scan splits input on ASCII whitespace and parses one token per output
// slot, in order. Slots must be pointers to int64, uint64, float64 or
// string. It returns the number of bytes of input consumed; extra tokens
// are left untouched so the caller can continue from there. Missing tokens
// fail with a parse error naming the expected count.
func Scan(input string, out ...interface{}) (int, error) {
	pos := 0
	for n, slot := range out {
		for pos < len(input) && isSpace(input[pos]) {
			pos++
		}
		start := pos
		for pos < len(input) && !isSpace(input[pos]) {
			pos++
		}
		if pos == start {
			return pos, NewError(ErrParse, "expected %d values, found %d in %q", len(out), n, input)
		}
		token := input[start:pos]
		var err error
		switch p := slot.(type) {
		case *int64:
			*p, err = ParseInt(token)
		case *uint64:
			*p, err = ParseUint(token)
		case *float64:
			*p, err = ParseFloat(token)
		case *string:
			*p = token
		default:
			return pos, NewError(ErrInvariant, "unsupported output type %T in Scan", slot)
		}
		if err != nil {
			return pos, DecorateError(err, "Scan")
		}
	}
	return pos, nil
}
