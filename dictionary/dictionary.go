// Package dictionary reads and writes keyword dictionaries of the form
//
//	name
//	{
//	    key value;
//	    sub
//	    {
//	        key value;
//	    }
//	}
package dictionary

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound is returned when a keyword is missing.
var ErrNotFound = errors.New("dictionary: keyword not found")

// A Dict is an ordered set of keyword entries and named sub-dictionaries.
type Dict struct {
	name     string
	keys     []string
	values   map[string]string
	subs     []*Dict
	subIndex map[string]*Dict
}

// New creates an empty dictionary.
func New(name string) *Dict {
	return &Dict{
		name:     name,
		values:   make(map[string]string),
		subIndex: make(map[string]*Dict),
	}
}

// Name returns the name of the dictionary.
func (d *Dict) Name() string {
	return d.name
}

// Keys returns the keywords in the order they were first set.
func (d *Dict) Keys() []string {
	return d.keys
}

// Has tells if the keyword is set.
func (d *Dict) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Set sets a keyword. Setting an existing keyword keeps its position.
func (d *Dict) Set(key, value string) *Dict {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}

	d.values[key] = value

	return d
}

// SetFloat sets a keyword to a number.
func (d *Dict) SetFloat(key string, v float64) *Dict {
	return d.Set(key, FormatFloat(v))
}

// SetBool sets a keyword to true or false.
func (d *Dict) SetBool(key string, v bool) *Dict {
	return d.Set(key, strconv.FormatBool(v))
}

// Lookup returns the value of a keyword.
func (d *Dict) Lookup(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Word returns the value of a keyword that must be set.
func (d *Dict) Word(key string) (string, error) {
	v, ok := d.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrNotFound, key, d.name)
	}

	return v, nil
}

// Float returns the numeric value of a keyword that must be set.
func (d *Dict) Float(key string) (float64, error) {
	v, err := d.Word(key)
	if err != nil {
		return 0, err
	}

	f, err := ParseFloat(v)
	if err != nil {
		return 0, fmt.Errorf("dictionary: %s in %s: %w", key, d.name, err)
	}

	return f, nil
}

// FloatOr returns the numeric value of a keyword, or def when it is not set.
func (d *Dict) FloatOr(key string, def float64) (float64, error) {
	if !d.Has(key) {
		return def, nil
	}

	return d.Float(key)
}

// BoolOr returns the boolean value of a keyword, or def when it is not set.
// Besides true and false, on/off and yes/no are accepted.
func (d *Dict) BoolOr(key string, def bool) (bool, error) {
	v, ok := d.values[key]
	if !ok {
		return def, nil
	}

	switch v {
	case "on", "yes":
		return true, nil
	case "off", "no", "none":
		return false, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("dictionary: %s in %s: %w", key, d.name, err)
	}

	return b, nil
}

// Add appends a sub-dictionary, replacing one of the same name.
func (d *Dict) Add(sub *Dict) *Dict {
	if old, ok := d.subIndex[sub.name]; ok {
		for i, s := range d.subs {
			if s == old {
				d.subs[i] = sub
			}
		}
	} else {
		d.subs = append(d.subs, sub)
	}

	d.subIndex[sub.name] = sub

	return d
}

// SubDict returns the named sub-dictionary, or nil.
func (d *Dict) SubDict(name string) *Dict {
	return d.subIndex[name]
}

// SubDicts returns the sub-dictionaries in order.
func (d *Dict) SubDicts() []*Dict {
	return d.subs
}

// FormatFloat formats a number so that ParseFloat reads back the same value.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseFloat reads a number. Infinities may be written as inf, +Inf or GREAT.
func ParseFloat(s string) (float64, error) {
	switch s {
	case "GREAT", "great":
		s = "+Inf"
	case "-GREAT":
		s = "-Inf"
	}

	return strconv.ParseFloat(s, 64)
}
