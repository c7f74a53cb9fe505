package reader

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/skytin1004/empire-db/database"
)

// RowFunc materializes one value from the current row. ReadAll calls it
// once per row; the value it returns is collected.
type RowFunc func(row Row) (interface{}, error)

// ReadAll consumes the reader's remaining rows, materializing each through
// fn, and returns the collected values. At most maxCount rows are read;
// a negative maxCount reads every remaining row, closing the reader on
// exhaustion. Calling ReadAll on a closed reader is an ErrInvalidState.
func (r *Reader) ReadAll(maxCount int, fn RowFunc) ([]interface{}, error) {
	if r.cursor == nil {
		return nil, errors.Wrap(database.ErrInvalidState, "reader is not open")
	}
	var values []interface{}
	for maxCount != 0 {
		moved, err := r.MoveNext()
		if err != nil {
			return nil, err
		}
		if !moved {
			break
		}
		value, err := fn(r)
		if err != nil {
			return nil, errors.Wrap(err, "materializing row")
		}
		values = append(values, value)
		if maxCount > 0 {
			maxCount--
		}
	}
	return values, nil
}

// RowsDocument is the structured form of a reader's column descriptions and
// remaining rows, shaped for XML marshalling:
//
//	<rowset>
//	  <column name="..." type="..."/>
//	  <row id="...">
//	    <name>value</name>
//	    <email null="yes"></email>
//	  </row>
//	</rowset>
//
// A column named "id" becomes an attribute of its row element; NULL cells
// carry a null="yes" attribute.
type RowsDocument struct {
	XMLName xml.Name      `xml:"rowset"`
	Columns []DocumentCol `xml:"column"`
	Rows    []DocumentRow `xml:"row"`
}

// DocumentCol describes one column of a RowsDocument.
type DocumentCol struct {
	Name     string `xml:"name,attr"`
	DataType string `xml:"type,attr"`
}

// DocumentRow is one row of a RowsDocument.
type DocumentRow struct {
	ID    string         `xml:"id,attr,omitempty"`
	Cells []DocumentCell `xml:",any"`
}

// DocumentCell is one non-id cell of a DocumentRow. Its element name is the
// column name.
type DocumentCell struct {
	XMLName xml.Name
	Null    string `xml:"null,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Document consumes the reader's remaining rows into a RowsDocument,
// closing the reader on exhaustion. Calling Document on a closed reader is
// an ErrInvalidState.
func (r *Reader) Document() (*RowsDocument, error) {
	if r.cursor == nil {
		return nil, errors.Wrap(database.ErrInvalidState, "reader is not open")
	}
	doc := &RowsDocument{}
	for _, column := range r.columns {
		doc.Columns = append(doc.Columns, DocumentCol{
			Name:     column.Name(),
			DataType: column.DataType().String(),
		})
	}
	columns := r.columns
	for {
		moved, err := r.MoveNext()
		if err != nil {
			return nil, err
		}
		if !moved {
			break
		}
		row := DocumentRow{}
		for i, column := range columns {
			value, err := r.Value(i)
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(column.Name(), "id") {
				row.ID = valueString(value)
				continue
			}
			cell := DocumentCell{
				XMLName: xml.Name{Local: column.Name()},
				Value:   valueString(value),
			}
			if value == nil {
				cell.Null = "yes"
			}
			row.Cells = append(row.Cells, cell)
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}

// ExportXML consumes the reader's remaining rows and writes them to w as an
// indented XML rowset document.
func (r *Reader) ExportXML(w io.Writer) error {
	doc, err := r.Document()
	if err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	err = encoder.Encode(doc)
	if err != nil {
		return errors.Wrap(err, "encoding rowset document")
	}
	return nil
}

func valueString(value interface{}) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%v", value)
}
