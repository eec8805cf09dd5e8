package domain

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultLimit caps list results when the client does not pass limit.
const DefaultLimit = 100

// comparison operator suffixes allowed in filter keys, e.g. price[gte]=500.
// Anything else between brackets is dropped, it never reaches the database.
var queryOperators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// reserved keys are extracted before filter construction
var reservedKeys = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// Query is an executable find descriptor produced by ParseQuery. It carries
// no connection: repositories decorate it further and execute it.
type Query struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.D
	Page       int64
	Limit      int64
}

// NewQuery creates an empty query with default sort and pagination
func NewQuery() *Query {
	return &Query{
		Filter: bson.M{},
		Sort:   bson.D{primitive.E{Key: "_id", Value: -1}},
		Page:   1,
		Limit:  DefaultLimit,
	}
}

// Skip returns the cursor offset for the requested page
func (q *Query) Skip() int64 {
	return (q.Page - 1) * q.Limit
}

// Scope merges extra equality conditions into the filter, e.g. restricting
// reviews to a single tour on nested routes
func (q *Query) Scope(conditions bson.M) *Query {
	for k, v := range conditions {
		q.Filter[k] = v
	}
	return q
}

// ParseQuery translates raw HTTP query parameters into a Query. Reserved
// keys (page, sort, limit, fields) configure pagination, ordering and
// projection; every remaining key becomes an equality filter, or a
// comparison filter when written as field[gte|gt|lte|lt]=value.
func ParseQuery(values url.Values) *Query {
	q := NewQuery()

	for key, vals := range values {
		if reservedKeys[key] || len(vals) == 0 {
			continue
		}

		field, op, ok := splitOperator(key)
		if !ok {
			continue
		}
		if op == "" {
			q.Filter[field] = coerceValue(vals[0])
			continue
		}

		cond, exists := q.Filter[field].(bson.M)
		if !exists {
			cond = bson.M{}
		}
		cond[op] = coerceValue(vals[0])
		q.Filter[field] = cond
	}

	if sort := values.Get("sort"); sort != "" {
		q.Sort = parseSort(sort)
	}

	if fields := values.Get("fields"); fields != "" {
		q.Projection = parseProjection(fields)
	}

	if page, err := strconv.ParseInt(values.Get("page"), 10, 64); err == nil && page > 0 {
		q.Page = page
	}
	if limit, err := strconv.ParseInt(values.Get("limit"), 10, 64); err == nil && limit > 0 {
		q.Limit = limit
	}

	return q
}

// splitOperator splits "price[gte]" into field and mongo operator. Keys with
// an unknown operator suffix report ok=false and are skipped entirely.
func splitOperator(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open == -1 {
		return key, "", true
	}
	if !strings.HasSuffix(key, "]") {
		return "", "", false
	}

	suffix := key[open+1 : len(key)-1]
	mongoOp, known := queryOperators[suffix]
	if !known {
		return "", "", false
	}

	return key[:open], mongoOp, true
}

// parseSort turns "-ratings_average,price" into an ordered multi-key sort
func parseSort(sort string) bson.D {
	result := bson.D{}
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		order := 1
		if strings.HasPrefix(field, "-") {
			order = -1
			field = field[1:]
		}
		result = append(result, primitive.E{Key: field, Value: order})
	}

	if len(result) == 0 {
		return bson.D{primitive.E{Key: "_id", Value: -1}}
	}
	return result
}

// parseProjection turns "name,price" into an inclusion projection
func parseProjection(fields string) bson.D {
	result := bson.D{}
	for _, field := range strings.Split(fields, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		result = append(result, primitive.E{Key: field, Value: 1})
	}
	return result
}

// coerceValue converts the raw string to a number or bool when it parses as
// one, so price=500 compares numerically. There is no schema validation at
// this layer, unknown fields pass through as written.
func coerceValue(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
