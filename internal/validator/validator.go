// Package validator implements the VIN Structural Validator (spec.md §4.1):
// alphabet/length checks and the weighted mod-11 check digit. The value
// map, weight table, and mod-11 shape are carried over directly from the
// teacher's inventory-service validateVINChecksum, generalized to return
// structured decodeerr records instead of a bare bool.
package validator

import (
	"strconv"
	"strings"

	"autolytiq/vindecoder/internal/decodeerr"
)

// transliteration maps a VIN letter to its check-digit value (digits map to
// their own face value and aren't listed). Forbidden letters I, O, Q are
// intentionally absent: any VIN that reaches here with one of them fails
// lookup, and CheckDigit returns errUnknownChar instead of a result.
var transliteration = map[byte]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
}

// weights are the position weights for positions 1..17, position 9 (the
// check digit itself) carrying weight 0.
var weights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

const forbiddenLetters = "IOQ"

// Normalized is a VIN that has passed structural validation: uppercased,
// trimmed, 17 characters, valid alphabet.
type Normalized struct {
	VIN string
}

// Validate uppercases and trims raw, then checks length and alphabet.
// Returns the normalized VIN plus any structural errors. A non-nil fatal
// error means the caller must not proceed to WMI resolution (spec.md §7:
// "structural errors ... abort decoding").
func Validate(raw string) (Normalized, []*decodeerr.Error) {
	var errs []*decodeerr.Error

	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		errs = append(errs, decodeerr.New(decodeerr.CodeEmptyInput, "VIN is empty"))
		return Normalized{VIN: trimmed}, errs
	}

	if len(trimmed) != 17 {
		errs = append(errs, decodeerr.New(decodeerr.CodeInvalidLength,
			"VIN must be exactly 17 characters, got "+strconv.Itoa(len(trimmed))))
	}

	if strings.ContainsAny(trimmed, forbiddenLetters) {
		errs = append(errs, decodeerr.New(decodeerr.CodeInvalidCharacters,
			"VIN contains forbidden letters I, O, or Q"))
	}

	if len(trimmed) >= 10 {
		switch trimmed[9] {
		case 'U', 'Z':
			errs = append(errs, decodeerr.New(decodeerr.CodeInvalidCharacters,
				"position 10 cannot be U or Z"))
		}
	}

	return Normalized{VIN: trimmed}, errs
}

// CheckDigitResult is the outcome of validating the weighted mod-11 check
// digit at VIN position 9.
type CheckDigitResult struct {
	Expected byte
	Actual   byte
	Valid    bool
}

// CheckDigit computes the expected check digit for a normalized 17-char VIN
// and compares it to the actual character at position 9. vin must already
// be uppercased and 17 characters over the non-forbidden alphabet; callers
// should run Validate first.
func CheckDigit(vin string) (CheckDigitResult, error) {
	if len(vin) != 17 {
		return CheckDigitResult{}, errInvalidLength
	}

	sum := 0
	for i := 0; i < 17; i++ {
		c := vin[i]
		var v int
		if c >= '0' && c <= '9' {
			v = int(c - '0')
		} else {
			val, ok := transliteration[c]
			if !ok {
				return CheckDigitResult{}, errUnknownChar
			}
			v = val
		}
		sum += v * weights[i]
	}

	remainder := sum % 11
	var expected byte
	if remainder == 10 {
		expected = 'X'
	} else {
		expected = byte('0' + remainder)
	}

	actual := vin[8]
	return CheckDigitResult{
		Expected: expected,
		Actual:   actual,
		Valid:    expected == actual,
	}, nil
}

type validatorError string

func (e validatorError) Error() string { return string(e) }

const (
	errInvalidLength validatorError = "validator: vin must be 17 characters"
	errUnknownChar   validatorError = "validator: vin contains an unrecognized character"
)
