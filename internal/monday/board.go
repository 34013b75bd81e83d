package monday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrBoardNotFound is returned when a board id matches no board.
var ErrBoardNotFound = errors.New("board not found")

// ErrItemNotFound is returned when an item lookup matches nothing.
var ErrItemNotFound = errors.New("item not found")

// ErrBoardTooLarge is returned when a board has more item pages than Board
// follows.
var ErrBoardTooLarge = errors.New("board has too many items to load")

const (
	itemsPageLimit = 100
	maxItemPages   = 50
)

// Column is a board column definition.
type Column struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	SettingsStr string `json:"settings_str,omitempty"`
}

// ColumnValue is the value of one column on one item. Value is the raw JSON
// string Monday.com stores for the column, or null.
type ColumnValue struct {
	ID    string          `json:"id"`
	Type  string          `json:"type,omitempty"`
	Text  string          `json:"text"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Item is a board row.
type Item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	ColumnValues []ColumnValue `json:"column_values,omitempty"`
}

// Column returns the value of the column with the given id.
func (it *Item) Column(id string) (ColumnValue, bool) {
	for _, cv := range it.ColumnValues {
		if cv.ID == id {
			return cv, true
		}
	}
	return ColumnValue{}, false
}

// Board is a board with its columns and, when requested, its items.
type Board struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Columns []Column `json:"columns,omitempty"`
	Items   []Item   `json:"items,omitempty"`
}

const boardSchemaQuery = `query ($ids: [ID!]) {
  boards(ids: $ids) {
    id
    name
    columns {
      id
      title
      type
    }
  }
}`

// BoardSchema returns the board's id, name, and columns.
func (c *Client) BoardSchema(ctx context.Context, boardID string) (*Board, error) {
	var data struct {
		Boards []Board `json:"boards"`
	}
	if err := c.Do(ctx, boardSchemaQuery, map[string]any{"ids": []string{boardID}}, &data); err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, fmt.Errorf("board %s: %w", boardID, ErrBoardNotFound)
	}
	return &data.Boards[0], nil
}

const boardItemsQuery = `query ($ids: [ID!], $limit: Int!) {
  boards(ids: $ids) {
    id
    name
    columns {
      id
      title
      type
      settings_str
    }
    items_page(limit: $limit) {
      cursor
      items {
        id
        name
        column_values {
          id
          type
          text
          value
        }
      }
    }
  }
}`

const nextItemsQuery = `query ($cursor: String!, $limit: Int!) {
  next_items_page(cursor: $cursor, limit: $limit) {
    cursor
    items {
      id
      name
      column_values {
        id
        type
        text
        value
      }
    }
  }
}`

type itemsPage struct {
	Cursor *string `json:"cursor"`
	Items  []Item  `json:"items"`
}

// Board returns the board with columns and every item, following items_page
// cursors.
func (c *Client) Board(ctx context.Context, boardID string) (*Board, error) {
	var data struct {
		Boards []struct {
			Board
			ItemsPage itemsPage `json:"items_page"`
		} `json:"boards"`
	}
	vars := map[string]any{"ids": []string{boardID}, "limit": itemsPageLimit}
	if err := c.Do(ctx, boardItemsQuery, vars, &data); err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, fmt.Errorf("board %s: %w", boardID, ErrBoardNotFound)
	}

	b := data.Boards[0].Board
	page := data.Boards[0].ItemsPage
	b.Items = append(b.Items, page.Items...)

	for i := 0; page.Cursor != nil && *page.Cursor != "" && i < maxItemPages; i++ {
		var next struct {
			NextItemsPage itemsPage `json:"next_items_page"`
		}
		vars := map[string]any{"cursor": *page.Cursor, "limit": itemsPageLimit}
		if err := c.Do(ctx, nextItemsQuery, vars, &next); err != nil {
			return nil, fmt.Errorf("fetching items page %d: %w", i+2, err)
		}
		page = next.NextItemsPage
		b.Items = append(b.Items, page.Items...)
	}
	if page.Cursor != nil && *page.Cursor != "" {
		return nil, fmt.Errorf("board %s: loaded %d items and more remain: %w", boardID, len(b.Items), ErrBoardTooLarge)
	}
	return &b, nil
}

// SearchItems returns the board items whose name contains term, case-insensitively.
func (c *Client) SearchItems(ctx context.Context, boardID, term string) ([]Item, error) {
	b, err := c.Board(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return FilterByName(b.Items, term), nil
}

// FilterByName keeps the items whose name contains term, case-insensitively.
func FilterByName(items []Item, term string) []Item {
	needle := strings.ToLower(term)
	matched := make([]Item, 0)
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), needle) {
			matched = append(matched, it)
		}
	}
	return matched
}

const changeColumnValuesMutation = `mutation ($board: ID!, $item: ID!, $values: JSON!) {
  change_multiple_column_values(board_id: $board, item_id: $item, column_values: $values) {
    id
    name
  }
}`

// ChangeColumnValues writes several column values on one item.
func (c *Client) ChangeColumnValues(ctx context.Context, boardID, itemID string, values map[string]any) (*Item, error) {
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encoding column values: %w", err)
	}
	var data struct {
		Item *Item `json:"change_multiple_column_values"`
	}
	vars := map[string]any{"board": boardID, "item": itemID, "values": string(encoded)}
	if err := c.Do(ctx, changeColumnValuesMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.Item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrItemNotFound)
	}
	return data.Item, nil
}

const changeColumnValueMutation = `mutation ($board: ID!, $item: ID!, $column: String!, $value: JSON!) {
  change_column_value(board_id: $board, item_id: $item, column_id: $column, value: $value) {
    id
    name
  }
}`

// ChangeColumnValue writes a single column value on one item.
func (c *Client) ChangeColumnValue(ctx context.Context, boardID, itemID, columnID string, value any) (*Item, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding column value: %w", err)
	}
	var data struct {
		Item *Item `json:"change_column_value"`
	}
	vars := map[string]any{"board": boardID, "item": itemID, "column": columnID, "value": string(encoded)}
	if err := c.Do(ctx, changeColumnValueMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.Item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrItemNotFound)
	}
	return data.Item, nil
}
