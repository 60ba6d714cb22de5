package db

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Family is the closed set of SQL dialects this module compiles vector
// expressions for. Everything that builds vector SQL goes through the
// functions below; call sites never hand-assemble these fragments.
type Family int

const (
	FamilyMySQL Family = iota
	FamilyMariaDB
)

func (f Family) String() string {
	switch f {
	case FamilyMariaDB:
		return "mariadb"
	default:
		return "mysql"
	}
}

type Metric int

const (
	MetricCosine Metric = iota
	MetricEuclidean
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricDot:
		return "dot"
	default:
		return "cosine"
	}
}

func ParseMetric(s string) Metric {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "euclidean":
		return MetricEuclidean
	case "dot":
		return MetricDot
	default:
		return MetricCosine
	}
}

// VectorLiteral wraps a JSON array literal in the dialect's
// text-to-vector constructor. Quoting is idempotent: an argument that
// already arrives quoted is not quoted again.
func (f Family) VectorLiteral(jsonArray string) string {
	lit := strings.TrimSpace(jsonArray)
	if !strings.HasPrefix(lit, "'") {
		lit = "'" + lit + "'"
	}
	switch f {
	case FamilyMariaDB:
		return "Vec_FromText(" + lit + ")"
	default:
		return "STRING_TO_VECTOR(" + lit + ")"
	}
}

// DistanceExpr emits the dialect distance call. MariaDB uses
// metric-specific function names; MySQL takes the metric as a string
// argument. MariaDB has no dot-product distance function, so dot falls
// back to cosine there.
func (f Family) DistanceExpr(a, b string, m Metric) string {
	switch f {
	case FamilyMariaDB:
		switch m {
		case MetricEuclidean:
			return fmt.Sprintf("VEC_DISTANCE_EUCLIDEAN(%s, %s)", a, b)
		default:
			return fmt.Sprintf("VEC_DISTANCE_COSINE(%s, %s)", a, b)
		}
	default:
		return fmt.Sprintf("VECTOR_DISTANCE(%s, %s, '%s')", a, b, strings.ToUpper(m.String()))
	}
}

// ColumnType is the embedding column DDL type: the native vector type
// when supported, otherwise a large-text column holding the JSON form.
func (c Capability) ColumnType(dimensions int) string {
	if !c.HasNativeVector {
		return "LONGTEXT"
	}
	return fmt.Sprintf("VECTOR(%d)", dimensions)
}

// VectorJSON serializes a vector for use inside VectorLiteral. The
// literal is interpolated into SQL rather than bound (the constructor
// wraps a literal, not a scalar parameter), so the payload must come from
// this function only: json.Marshal of a float slice emits nothing beyond
// digits, signs, exponents, dots, commas and brackets.
func VectorJSON(vec []float32) (string, error) {
	buf, err := json.Marshal(vec)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
