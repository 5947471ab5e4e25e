package result

import (
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ftquery/internal/domain"
)

// Command names used in protocol errors.
const (
	cmdSearch    = "FT.SEARCH"
	cmdAggregate = "FT.AGGREGATE"
	cmdCursor    = "FT.CURSOR"
	cmdInfo      = "FT.INFO"
)

// DecodeSearch converts an FT.SEARCH reply laid out per shape:
// [total, id, score?, payload?, fields?, id, ...].
func DecodeSearch(raw rueidis.RedisMessage, shape Shape) (*SearchResult, error) {
	items, err := asArray(cmdSearch, &raw, "reply")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewProtocolError(cmdSearch, "empty reply")
	}

	total, err := asInt(cmdSearch, &items[0], "total")
	if err != nil {
		return nil, err
	}

	stride := shape.stride()
	body := items[1:]
	if len(body)%stride != 0 {
		return nil, domain.NewProtocolError(cmdSearch,
			"%d elements after total do not split into documents of %d", len(body), stride)
	}

	docs := make([]Document, 0, len(body)/stride)
	for i := 0; i < len(body); i += stride {
		doc, err := decodeDocument(body[i:i+stride], shape)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return &SearchResult{Total: total, Docs: docs, Shape: shape}, nil
}

func decodeDocument(parts []rueidis.RedisMessage, shape Shape) (Document, error) {
	var doc Document
	id, err := asString(cmdSearch, &parts[0], "document id")
	if err != nil {
		return Document{}, err
	}
	doc.ID = id

	j := 1
	if shape.WithScores {
		if !parts[j].IsString() && !parts[j].IsFloat64() {
			return Document{}, domain.NewProtocolError(cmdSearch, "score of %q is not a number", id)
		}
		score, err := parts[j].AsFloat64()
		if err != nil {
			return Document{}, domain.NewProtocolError(cmdSearch, "score of %q: %v", id, err)
		}
		doc.Score = &score
		j++
	}
	if shape.WithPayloads {
		if !parts[j].IsNil() {
			p, err := asString(cmdSearch, &parts[j], "payload")
			if err != nil {
				return Document{}, err
			}
			doc.Payload = p
		}
		j++
	}
	if !shape.NoContent {
		fields, err := decodeFieldMap(&parts[j])
		if err != nil {
			return Document{}, err
		}
		doc.Fields = fields
	}
	return doc, nil
}

// decodeFieldMap reads a flat [name, value, ...] list. A nil reply (expired
// document) yields an empty map; nil values are omitted.
func decodeFieldMap(m *rueidis.RedisMessage) (map[string]string, error) {
	if m.IsNil() {
		return map[string]string{}, nil
	}
	pairs, err := asArray(cmdSearch, m, "document fields")
	if err != nil {
		return nil, err
	}
	if len(pairs)%2 != 0 {
		return nil, domain.NewProtocolError(cmdSearch, "odd field list length %d", len(pairs))
	}
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, err := asString(cmdSearch, &pairs[i], "field name")
		if err != nil {
			return nil, err
		}
		if pairs[i+1].IsNil() {
			continue
		}
		value, err := asString(cmdSearch, &pairs[i+1], "value of "+name)
		if err != nil {
			return nil, err
		}
		fields[name] = value
	}
	return fields, nil
}

// DecodeAggregation converts an FT.AGGREGATE reply. With a cursor the reply
// is [[total, row...], cursor]; without one it is [total, row...].
func DecodeAggregation(raw rueidis.RedisMessage, withCursor bool) (*AggregationResult, error) {
	if withCursor {
		return decodeCursorReply(cmdAggregate, &raw)
	}
	items, err := asArray(cmdAggregate, &raw, "reply")
	if err != nil {
		return nil, err
	}
	return decodeRows(cmdAggregate, items)
}

// DecodeCursor converts an FT.CURSOR READ reply.
func DecodeCursor(raw rueidis.RedisMessage) (*AggregationResult, error) {
	return decodeCursorReply(cmdCursor, &raw)
}

func decodeCursorReply(cmd string, raw *rueidis.RedisMessage) (*AggregationResult, error) {
	items, err := asArray(cmd, raw, "reply")
	if err != nil {
		return nil, err
	}
	if len(items) != 2 {
		return nil, domain.NewProtocolError(cmd, "cursor reply has %d elements, want 2", len(items))
	}
	rows, err := asArray(cmd, &items[0], "result rows")
	if err != nil {
		return nil, err
	}
	res, err := decodeRows(cmd, rows)
	if err != nil {
		return nil, err
	}
	cursor, err := asInt(cmd, &items[1], "cursor id")
	if err != nil {
		return nil, err
	}
	res.Cursor = &cursor
	return res, nil
}

func decodeRows(cmd string, items []rueidis.RedisMessage) (*AggregationResult, error) {
	if len(items) == 0 {
		return nil, domain.NewProtocolError(cmd, "empty reply")
	}
	total, err := asInt(cmd, &items[0], "total")
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(items)-1)
	for i := 1; i < len(items); i++ {
		row, err := decodeRow(cmd, &items[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return &AggregationResult{Total: total, Rows: rows}, nil
}

func decodeRow(cmd string, m *rueidis.RedisMessage) (Row, error) {
	pairs, err := asArray(cmd, m, "row")
	if err != nil {
		return nil, err
	}
	if len(pairs)%2 != 0 {
		return nil, domain.NewProtocolError(cmd, "odd row length %d", len(pairs))
	}
	row := make(Row, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, err := asString(cmd, &pairs[i], "row field name")
		if err != nil {
			return nil, err
		}
		value, err := toAny(&pairs[i+1])
		if err != nil {
			return nil, domain.NewProtocolError(cmd, "value of %q: %v", name, err)
		}
		row = append(row, Field{Name: name, Value: value})
	}
	return row, nil
}

// DecodeInfo converts an FT.INFO reply: a flat [key, value, ...] list in
// RESP2 or a map in RESP3.
func DecodeInfo(raw rueidis.RedisMessage) (Info, error) {
	if raw.IsMap() {
		v, err := raw.ToAny()
		if err != nil {
			return nil, domain.NewProtocolError(cmdInfo, "%v", err)
		}
		m, _ := v.(map[string]any)
		return Info(m), nil
	}
	items, err := asArray(cmdInfo, &raw, "reply")
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, domain.NewProtocolError(cmdInfo, "odd reply length %d", len(items))
	}
	info := make(Info, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		key, err := asString(cmdInfo, &items[i], "key")
		if err != nil {
			return nil, err
		}
		value, err := toAny(&items[i+1])
		if err != nil {
			return nil, domain.NewProtocolError(cmdInfo, "value of %q: %v", key, err)
		}
		info[key] = value
	}
	return info, nil
}

// --- Helpers: type checks run before conversion so a wrong type becomes a ProtocolError. ---

func asArray(cmd string, m *rueidis.RedisMessage, what string) ([]rueidis.RedisMessage, error) {
	if !m.IsArray() {
		return nil, domain.NewProtocolError(cmd, "%s is not an array", what)
	}
	return m.ToArray()
}

func asString(cmd string, m *rueidis.RedisMessage, what string) (string, error) {
	if !m.IsString() {
		return "", domain.NewProtocolError(cmd, "%s is not a string", what)
	}
	return m.ToString()
}

func asInt(cmd string, m *rueidis.RedisMessage, what string) (int64, error) {
	if !m.IsInt64() && !m.IsString() {
		return 0, domain.NewProtocolError(cmd, "%s is not an integer", what)
	}
	v, err := m.AsInt64()
	if err != nil {
		return 0, domain.NewProtocolError(cmd, "%s: %v", what, err)
	}
	return v, nil
}

// toAny converts a reply value; nil stays nil.
func toAny(m *rueidis.RedisMessage) (any, error) {
	if m.IsNil() {
		return nil, nil
	}
	return m.ToAny()
}
