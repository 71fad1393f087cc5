package staking

import (
	"bytes"
	"fmt"

	"github.com/tonkeeper/tongo/boc"
)

// ContentOffchain marks jetton metadata stored behind a URI.
const ContentOffchain = 1

// ContentCell builds the metadata cell for an off-chain content URI.
// The URI has no length prefix: it fills the cell and continues in a chain of refs.
func ContentCell(uri string) (*boc.Cell, error) {
	c := boc.NewCell()
	if err := c.WriteUint(ContentOffchain, 8); err != nil {
		return nil, err
	}
	if err := writeSnakeTail(c, []byte(uri)); err != nil {
		return nil, fmt.Errorf("write uri: %w", err)
	}
	return c, nil
}

func writeSnakeTail(c *boc.Cell, data []byte) error {
	fit := c.BitsAvailableForWrite() / 8
	if len(data) <= fit {
		return c.WriteBytes(data)
	}
	if err := c.WriteBytes(data[:fit]); err != nil {
		return err
	}
	next := boc.NewCell()
	if err := writeSnakeTail(next, data[fit:]); err != nil {
		return err
	}
	return c.AddRef(next)
}

// readSnakeTail is the inverse of writeSnakeTail, starting at c's read cursor.
func readSnakeTail(c *boc.Cell) ([]byte, error) {
	var buf bytes.Buffer
	for cur := c; cur != nil; {
		n := cur.BitsAvailableForRead() / 8
		chunk, err := cur.ReadBytes(n)
		if err != nil {
			return nil, err
		}
		buf.Write(chunk)
		if cur.RefsAvailableForRead() == 0 {
			break
		}
		next, err := cur.NextRef()
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return buf.Bytes(), nil
}

// ContentURI extracts the URI from an off-chain content cell.
func ContentURI(content *boc.Cell) (string, error) {
	if content == nil {
		return "", fmt.Errorf("no content cell")
	}
	content.ResetCounters()
	prefix, err := content.ReadUint(8)
	if err != nil {
		return "", err
	}
	if prefix != ContentOffchain {
		return "", fmt.Errorf("content prefix %d is not off-chain", prefix)
	}
	data, err := readSnakeTail(content)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SameCell compares two cells by representation hash.
func SameCell(a, b *boc.Cell) (bool, error) {
	if a == nil || b == nil {
		return a == b, nil
	}
	ha, err := a.Hash()
	if err != nil {
		return false, err
	}
	hb, err := b.Hash()
	if err != nil {
		return false, err
	}
	return bytes.Equal(ha, hb), nil
}
