package openpayu

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kevin07696/openpayu/pkg/encoding"
)

const (
	xmlHeader    = `<?xml version="1.0" encoding="UTF-8"?>`
	xmlNamespace = "http://www.openpayu.com/openpayu.xsd"

	rootElement         = "OpenPayU"
	orderDomainRequest  = "OrderDomainRequest"
	orderDomainResponse = "OrderDomainResponse"
)

// Field is one element of a request document.
// Value is a string, an integer, a bool, a fmt.Stringer, a nested Fields
// or a []Fields rendered as repeated elements named Key.
type Field struct {
	Key   string
	Value interface{}
}

// Fields is an ordered set of elements. OpenPayU documents are XSD sequences,
// so element order is preserved exactly as given.
type Fields []Field

// Get returns the first value stored under key
func (f Fields) Get(key string) (interface{}, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// GetString returns the first scalar value stored under key
func (f Fields) GetString(key string) string {
	v, ok := f.Get(key)
	if !ok {
		return ""
	}
	s, err := scalarString(v)
	if err != nil {
		return ""
	}
	return s
}

// Document is a parsed OpenPayU XML document.
// Leaves are strings, elements with children are Documents and repeated
// sibling elements are collected into []interface{}.
type Document map[string]interface{}

// Lookup walks the document along path and returns the value found there
func (d Document) Lookup(path ...string) (interface{}, bool) {
	var current interface{} = d
	for _, key := range path {
		node, ok := current.(Document)
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String returns the leaf at path, or "" when the path is missing or not a leaf
func (d Document) String(path ...string) string {
	v, ok := d.Lookup(path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// BuildRequestDocument wraps fields in OpenPayU/OrderDomainRequest/<operation>
func BuildRequestDocument(operation string, fields Fields) ([]byte, error) {
	return buildDocument(orderDomainRequest, operation, fields)
}

// BuildResponseDocument wraps fields in OpenPayU/OrderDomainResponse/<operation>
func BuildResponseDocument(operation string, fields Fields) ([]byte, error) {
	return buildDocument(orderDomainResponse, operation, fields)
}

func buildDocument(domain, operation string, fields Fields) ([]byte, error) {
	if operation == "" {
		return nil, fmt.Errorf("operation name is required")
	}

	return encoding.Encode(func(buf *bytes.Buffer) error {
		buf.WriteString(xmlHeader)
		buf.WriteString("\n")
		buf.WriteString(`<` + rootElement + ` xmlns="` + xmlNamespace + `">`)
		buf.WriteString("<" + domain + ">")
		buf.WriteString("<" + operation + ">")
		if err := writeFields(buf, fields); err != nil {
			return fmt.Errorf("failed to build %s: %w", operation, err)
		}
		buf.WriteString("</" + operation + ">")
		buf.WriteString("</" + domain + ">")
		buf.WriteString("</" + rootElement + ">")
		return nil
	})
}

func writeFields(buf *bytes.Buffer, fields Fields) error {
	for _, field := range fields {
		if !validElementName(field.Key) {
			return fmt.Errorf("invalid element name %q", field.Key)
		}

		switch v := field.Value.(type) {
		case Fields:
			buf.WriteString("<" + field.Key + ">")
			if err := writeFields(buf, v); err != nil {
				return err
			}
			buf.WriteString("</" + field.Key + ">")
		case []Fields:
			for _, item := range v {
				buf.WriteString("<" + field.Key + ">")
				if err := writeFields(buf, item); err != nil {
					return err
				}
				buf.WriteString("</" + field.Key + ">")
			}
		default:
			text, err := scalarString(v)
			if err != nil {
				return fmt.Errorf("element %s: %w", field.Key, err)
			}
			buf.WriteString("<" + field.Key + ">")
			if err := xml.EscapeText(buf, []byte(text)); err != nil {
				return err
			}
			buf.WriteString("</" + field.Key + ">")
		}
	}
	return nil
}

func scalarString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case bool:
		return strconv.FormatBool(s), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func validElementName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
		case i > 0 && (r == '-' || r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return !strings.HasPrefix(strings.ToLower(name), "xml")
}

// ParseDocument parses an OpenPayU XML document into a Document rooted at the
// document element, e.g. doc["OpenPayU"]["OrderDomainResponse"]...
func ParseDocument(data []byte) (Document, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	type frame struct {
		name     string
		children Document
		text     strings.Builder
		hasChild bool
	}

	var (
		stack []*frame
		root  Document
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, fmt.Errorf("failed to parse document: content after root element")
			}
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, &frame{name: t.Name.Local, children: Document{}})

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			var value interface{} = top.text.String()
			if top.hasChild {
				value = top.children
			}

			if len(stack) == 0 {
				root = Document{top.name: value}
				continue
			}
			addChild(stack[len(stack)-1].children, top.name, value)
		}
	}

	if root == nil {
		return nil, fmt.Errorf("failed to parse document: no root element")
	}
	return root, nil
}

func addChild(parent Document, name string, value interface{}) {
	existing, ok := parent[name]
	if !ok {
		parent[name] = value
		return
	}
	if list, ok := existing.([]interface{}); ok {
		parent[name] = append(list, value)
		return
	}
	parent[name] = []interface{}{existing, value}
}
