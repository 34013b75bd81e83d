package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/tkingovr/monday-mcp/api"
	"github.com/tkingovr/monday-mcp/internal/board"
	"github.com/tkingovr/monday-mcp/internal/jsonrpc"
	"github.com/tkingovr/monday-mcp/internal/monday"
)

// Tool names.
const (
	GetBoardItemsByName    = "get_board_items_by_name"
	ChangeItemColumnValues = "change_item_column_values"
	GetBoardSchema         = "get_board_schema"
	UpdateItemEmail        = "update_item_email"
	ListBoardItems         = "list_board_items"
)

// OptionalTools lists the tools that are registered only when enabled.
var OptionalTools = []string{UpdateItemEmail, ListBoardItems}

// Collaborator is the subset of the Monday.com client the tools call.
type Collaborator interface {
	BoardSchema(ctx context.Context, boardID string) (*monday.Board, error)
	SearchItems(ctx context.Context, boardID, term string) ([]monday.Item, error)
	ChangeColumnValues(ctx context.Context, boardID, itemID string, values map[string]any) (*monday.Item, error)
	ChangeColumnValue(ctx context.Context, boardID, itemID, columnID string, value any) (*monday.Item, error)
}

// Knowledge serves cached board snapshots.
type Knowledge interface {
	BoardID() string
	Get(ctx context.Context, maxAge time.Duration) (*board.Snapshot, error)
}

// Options configure the Monday.com tool set.
type Options struct {
	Client        Collaborator
	BoardID       string
	EmailColumnID string
	Knowledge     Knowledge
	// MaxAge bounds how stale a snapshot list_board_items may serve.
	MaxAge time.Duration
	// Enabled names optional tools to register in addition to the core three.
	Enabled []string
}

// Build returns a registry holding the core tools plus any enabled optional tools.
func Build(opts Options) (*Registry, error) {
	if opts.Client == nil {
		return nil, errors.New("tools: nil collaborator")
	}
	list := []Tool{
		&itemsByName{client: opts.Client, defaultBoard: opts.BoardID},
		&changeColumnValues{client: opts.Client, defaultBoard: opts.BoardID},
		&boardSchema{client: opts.Client, defaultBoard: opts.BoardID},
	}
	for _, name := range opts.Enabled {
		switch name {
		case UpdateItemEmail:
			if opts.Knowledge == nil {
				return nil, fmt.Errorf("tools: %s requires board knowledge", name)
			}
			list = append(list, &updateItemEmail{
				client:      opts.Client,
				knowledge:   opts.Knowledge,
				emailColumn: opts.EmailColumnID,
			})
		case ListBoardItems:
			if opts.Knowledge == nil {
				return nil, fmt.Errorf("tools: %s requires board knowledge", name)
			}
			list = append(list, &listBoardItems{knowledge: opts.Knowledge, maxAge: opts.MaxAge})
		default:
			return nil, fmt.Errorf("tools: unknown optional tool %q", name)
		}
	}
	return NewRegistry(list...)
}

func resolveBoard(id ID, fallback string) (string, error) {
	if id != "" {
		return string(id), nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", argError("boardId", "is required when no default board is configured")
}

// get_board_items_by_name

type itemsByNameInput struct {
	BoardID ID     `json:"boardId"`
	Term    string `json:"term"`
}

type itemsByNameOutput struct {
	Items []monday.Item `json:"items"`
	Total int           `json:"total"`
}

type itemsByName struct {
	client       Collaborator
	defaultBoard string
}

func (t *itemsByName) Descriptor() api.ToolDescriptor {
	return api.ToolDescriptor{
		Name:        GetBoardItemsByName,
		Description: "Find items on a Monday.com board whose name contains the search term (case-insensitive).",
		InputSchema: objectSchema(map[string]any{
			"boardId": idProp("Board id. Defaults to the configured board."),
			"term":    stringProp("Text to match against item names."),
		}, "term"),
	}
}

func (t *itemsByName) Decode(args json.RawMessage) (any, error) {
	var in itemsByNameInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	in.Term = strings.TrimSpace(in.Term)
	if in.Term == "" {
		return nil, argError("term", "is required")
	}
	boardID, err := resolveBoard(in.BoardID, t.defaultBoard)
	if err != nil {
		return nil, err
	}
	in.BoardID = ID(boardID)
	return in, nil
}

func (t *itemsByName) Execute(ctx context.Context, input any) (any, error) {
	in := input.(itemsByNameInput)
	items, err := t.client.SearchItems(ctx, string(in.BoardID), in.Term)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []monday.Item{}
	}
	return itemsByNameOutput{Items: items, Total: len(items)}, nil
}

// change_item_column_values

type changeColumnValuesInput struct {
	BoardID      ID              `json:"boardId"`
	ItemID       ID              `json:"itemId"`
	ColumnValues json.RawMessage `json:"columnValues"`
	// ColumnID and Value are the single-column shorthand.
	ColumnID string `json:"columnId"`
	Value    any    `json:"value"`

	values map[string]any
}

type changeColumnValues struct {
	client       Collaborator
	defaultBoard string
}

func (t *changeColumnValues) Descriptor() api.ToolDescriptor {
	return api.ToolDescriptor{
		Name:        ChangeItemColumnValues,
		Description: "Update one or more column values of a Monday.com item.",
		InputSchema: objectSchema(map[string]any{
			"boardId": idProp("Board id. Defaults to the configured board."),
			"itemId":  idProp("Id of the item to update."),
			"columnValues": map[string]any{
				"type":        "object",
				"description": "Map of column id to new value, in Monday.com column value format.",
			},
		}, "itemId", "columnValues"),
	}
}

func (t *changeColumnValues) Decode(args json.RawMessage) (any, error) {
	var in changeColumnValuesInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ItemID == "" {
		return nil, argError("itemId", "is required")
	}
	values, err := columnValues(in)
	if err != nil {
		return nil, err
	}
	in.values = values
	boardID, err := resolveBoard(in.BoardID, t.defaultBoard)
	if err != nil {
		return nil, err
	}
	in.BoardID = ID(boardID)
	return in, nil
}

// columnValues accepts columnValues as an object or as a JSON-encoded string,
// falling back to the columnId/value pair.
func columnValues(in changeColumnValuesInput) (map[string]any, error) {
	raw := in.ColumnValues
	if len(raw) == 0 || string(raw) == "null" {
		if in.ColumnID == "" {
			return nil, argError("columnValues", "is required")
		}
		return map[string]any{in.ColumnID: in.Value}, nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil || values == nil {
		return nil, argError("columnValues", "must be an object of column id to value")
	}
	if len(values) == 0 {
		return nil, argError("columnValues", "must not be empty")
	}
	return values, nil
}

func (t *changeColumnValues) Execute(ctx context.Context, input any) (any, error) {
	in := input.(changeColumnValuesInput)
	return t.client.ChangeColumnValues(ctx, string(in.BoardID), string(in.ItemID), in.values)
}

// get_board_schema

type boardSchemaInput struct {
	BoardID ID `json:"boardId"`
}

type boardSchema struct {
	client       Collaborator
	defaultBoard string
}

func (t *boardSchema) Descriptor() api.ToolDescriptor {
	return api.ToolDescriptor{
		Name:        GetBoardSchema,
		Description: "Return the columns (id, title, type) of a Monday.com board.",
		InputSchema: objectSchema(map[string]any{
			"boardId": idProp("Board id. Defaults to the configured board."),
		}),
	}
}

func (t *boardSchema) Decode(args json.RawMessage) (any, error) {
	var in boardSchemaInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	boardID, err := resolveBoard(in.BoardID, t.defaultBoard)
	if err != nil {
		return nil, err
	}
	in.BoardID = ID(boardID)
	return in, nil
}

func (t *boardSchema) Execute(ctx context.Context, input any) (any, error) {
	in := input.(boardSchemaInput)
	return t.client.BoardSchema(ctx, string(in.BoardID))
}

// update_item_email

type updateItemEmailInput struct {
	BoardID  ID     `json:"boardId"`
	ItemID   ID     `json:"itemId"`
	ItemName string `json:"itemName"`
	Email    string `json:"email"`
}

type updateItemEmailOutput struct {
	Status        string `json:"status"`
	ItemID        string `json:"itemId"`
	ItemName      string `json:"itemName,omitempty"`
	ColumnID      string `json:"columnId"`
	Email         string `json:"email"`
	PreviousEmail string `json:"previousEmail,omitempty"`
}

type updateItemEmail struct {
	client      Collaborator
	knowledge   Knowledge
	emailColumn string
}

func (t *updateItemEmail) Descriptor() api.ToolDescriptor {
	return api.ToolDescriptor{
		Name:        UpdateItemEmail,
		Description: "Set the email column of an item, looked up by name or id. Without a configured email column, the board's email column is detected.",
		InputSchema: objectSchema(map[string]any{
			"boardId":  idProp("Board id. Defaults to the configured board."),
			"itemId":   idProp("Id of the item to update."),
			"itemName": stringProp("Name of the item to update, used when itemId is absent."),
			"email":    stringProp("Email address to store."),
		}, "email"),
	}
}

func (t *updateItemEmail) Decode(args json.RawMessage) (any, error) {
	var in updateItemEmailInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, argError("email", "is not a valid address")
	}
	in.Email = addr.Address
	in.ItemName = strings.TrimSpace(in.ItemName)
	if in.ItemID == "" && in.ItemName == "" {
		return nil, argError("itemName", "or itemId is required")
	}
	cached := t.knowledge.BoardID()
	if in.BoardID == "" {
		in.BoardID = ID(cached)
	}
	if in.BoardID == "" {
		return nil, argError("boardId", "is required when no default board is configured")
	}
	if in.ItemID == "" && string(in.BoardID) != cached {
		return nil, argError("itemId", "is required for boards other than "+cached)
	}
	return in, nil
}

func (t *updateItemEmail) Execute(ctx context.Context, input any) (any, error) {
	in := input.(updateItemEmailInput)
	boardID := string(in.BoardID)
	itemID, itemName := string(in.ItemID), in.ItemName
	columnID := t.emailColumn

	var snap *board.Snapshot
	if itemID == "" || columnID == "" {
		if boardID != t.knowledge.BoardID() {
			return nil, argError("", "no email column is configured")
		}
		var err error
		if snap, err = t.knowledge.Get(ctx, 0); err != nil {
			return nil, fmt.Errorf("refreshing board: %w", err)
		}
	}
	if columnID == "" {
		col, ok := emailColumn(snap)
		if !ok {
			return nil, argError("", "no email column is configured or found on board "+boardID)
		}
		columnID = col.ID
	}

	var previous string
	if itemID == "" {
		item, ok := snap.FindItem(in.ItemName)
		if !ok {
			return nil, jsonrpc.Errorf(jsonrpc.CodeApplication, "item %q not found on board %s; available items: %s",
				in.ItemName, snap.BoardID, strings.Join(snap.ItemNames(), ", "))
		}
		itemID, itemName = item.ID, item.Name
		if cv, ok := item.Column(columnID); ok {
			previous = cv.Text
		}
	}

	value := map[string]string{"email": in.Email, "text": in.Email}
	if _, err := t.client.ChangeColumnValue(ctx, boardID, itemID, columnID, value); err != nil {
		return nil, err
	}
	return updateItemEmailOutput{
		Status:        "success",
		ItemID:        itemID,
		ItemName:      itemName,
		ColumnID:      columnID,
		Email:         in.Email,
		PreviousEmail: previous,
	}, nil
}

// emailColumn picks the first column of type email, falling back to a column
// whose id or title matches "email".
func emailColumn(snap *board.Snapshot) (*monday.Column, bool) {
	for i := range snap.Columns {
		if snap.Columns[i].Type == "email" {
			return &snap.Columns[i], true
		}
	}
	return snap.FindColumn("email")
}

// list_board_items

type listBoardItemsInput struct {
	Refresh bool `json:"refresh"`
}

type listBoardItems struct {
	knowledge Knowledge
	maxAge    time.Duration
}

func (t *listBoardItems) Descriptor() api.ToolDescriptor {
	return api.ToolDescriptor{
		Name:        ListBoardItems,
		Description: "List the items and columns of the configured board from the board cache.",
		InputSchema: objectSchema(map[string]any{
			"refresh": map[string]any{
				"type":        "boolean",
				"description": "Fetch a fresh snapshot instead of serving the cached one.",
			},
		}),
	}
}

func (t *listBoardItems) Decode(args json.RawMessage) (any, error) {
	var in listBoardItemsInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	return in, nil
}

func (t *listBoardItems) Execute(ctx context.Context, input any) (any, error) {
	in := input.(listBoardItemsInput)
	maxAge := t.maxAge
	if in.Refresh {
		maxAge = 0
	}
	return t.knowledge.Get(ctx, maxAge)
}
