package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Write writes the dictionary in its textual form.
func Write(w io.Writer, d *Dict) error {
	bw := bufio.NewWriter(w)
	writeDict(bw, d, 0)

	return bw.Flush()
}

// WriteEntries writes the entries of the dictionary without its name and
// braces.
func WriteEntries(w io.Writer, d *Dict) error {
	bw := bufio.NewWriter(w)
	writeEntries(bw, d, 0)

	return bw.Flush()
}

func writeDict(w *bufio.Writer, d *Dict, depth int) {
	indent := strings.Repeat("    ", depth)

	fmt.Fprintf(w, "%s%s\n%s{\n", indent, d.name, indent)
	writeEntries(w, d, depth+1)
	fmt.Fprintf(w, "%s}\n", indent)
}

func writeEntries(w *bufio.Writer, d *Dict, depth int) {
	indent := strings.Repeat("    ", depth)

	for _, k := range d.keys {
		fmt.Fprintf(w, "%s%s %s;\n", indent, k, d.values[k])
	}

	for _, s := range d.subs {
		writeDict(w, s, depth)
	}
}

// Read parses all the top-level entries of a stream into a dictionary with
// the given name.
func Read(r io.Reader, name string) (*Dict, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokenize(string(data))}
	root := New(name)

	err = p.parseEntries(root, false)
	if err != nil {
		return nil, err
	}

	return root, nil
}

type token struct {
	text string
	line int
}

func tokenize(s string) []token {
	var (
		tokens []token
		cur    strings.Builder
		line   = 1
	)

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, token{text: cur.String(), line: line})
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			flush()
			for i < len(s) && s[i] != '\n' {
				i++
			}
			line++
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			flush()
			i += 2
			for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
				if s[i] == '\n' {
					line++
				}
				i++
			}
			i++
		case c == '{' || c == '}' || c == ';':
			flush()
			tokens = append(tokens, token{text: string(c), line: line})
		case unicode.IsSpace(rune(c)):
			flush()
			if c == '\n' {
				line++
			}
		default:
			cur.WriteByte(c)
		}
	}

	flush()

	return tokens
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) errorf(format string, args ...any) error {
	line := 0
	if p.pos < len(p.tokens) {
		line = p.tokens[p.pos].line
	} else if len(p.tokens) > 0 {
		line = p.tokens[len(p.tokens)-1].line
	}

	return fmt.Errorf("dictionary: line %d: %s", line,
		fmt.Sprintf(format, args...))
}

func (p *parser) parseEntries(d *Dict, nested bool) error {
	for p.pos < len(p.tokens) {
		t := p.tokens[p.pos]

		switch t.text {
		case "}":
			if !nested {
				return p.errorf("unexpected }")
			}

			p.pos++

			return nil
		case "{", ";":
			return p.errorf("unexpected %s", t.text)
		}

		p.pos++

		err := p.parseEntry(d, t.text)
		if err != nil {
			return err
		}
	}

	if nested {
		return p.errorf("missing } in %s", d.name)
	}

	return nil
}

func (p *parser) parseEntry(d *Dict, key string) error {
	if p.pos < len(p.tokens) && p.tokens[p.pos].text == "{" {
		p.pos++
		sub := New(key)

		err := p.parseEntries(sub, true)
		if err != nil {
			return err
		}

		d.Add(sub)

		return nil
	}

	var words []string
	for p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		p.pos++

		switch t.text {
		case ";":
			if len(words) == 0 {
				return p.errorf("keyword %s has no value", key)
			}

			d.Set(key, strings.Join(words, " "))

			return nil
		case "{", "}":
			p.pos--
			return p.errorf("keyword %s is missing ;", key)
		}

		words = append(words, t.text)
	}

	return p.errorf("keyword %s is missing ;", key)
}
