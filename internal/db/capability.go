package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Capability is the detected vector ability of the connected engine.
// FallbackReason is set whenever HasNativeVector is false for a reason
// other than the version simply being too old.
type Capability struct {
	Family          Family
	VersionString   string
	Version         Version
	HasNativeVector bool
	FallbackReason  string
}

type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	return v.Patch >= o.Patch
}

// Minimum versions shipping the vector type and distance functions.
var (
	minMySQLVector   = Version{Major: 8, Minor: 0, Patch: 32}
	minMariaDBVector = Version{Major: 11, Minor: 7, Patch: 0}
)

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

func parseVersion(s string) (Version, bool) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch}, true
}

func detectFamily(versionString string) Family {
	if strings.Contains(strings.ToLower(versionString), "mariadb") {
		return FamilyMariaDB
	}
	return FamilyMySQL
}

func meetsVectorThreshold(f Family, v Version) bool {
	switch f {
	case FamilyMariaDB:
		return v.AtLeast(minMariaDBVector)
	default:
		return v.AtLeast(minMySQLVector)
	}
}

// Probe detects engine capabilities once and caches the result for its
// own lifetime. It is constructed at startup and handed to every
// component that needs it; Refresh drops the cache for tests.
type Probe struct {
	db *sql.DB

	mu  sync.Mutex
	cap *Capability
}

func NewProbe(db *sql.DB) *Probe {
	return &Probe{db: db}
}

func (p *Probe) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cap = nil
}

// Detect never fails: any error during detection degrades to
// HasNativeVector=false with the reason recorded on the capability.
func (p *Probe) Detect(ctx context.Context) Capability {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cap != nil {
		return *p.cap
	}
	detected := p.detect(ctx)
	p.cap = &detected
	logutil.GetLogger(ctx).Info("database capability detected",
		zap.String("family", detected.Family.String()),
		zap.String("version", detected.VersionString),
		zap.Bool("native_vector", detected.HasNativeVector),
		zap.String("fallback_reason", detected.FallbackReason),
	)
	return detected
}

func (p *Probe) detect(ctx context.Context) Capability {
	var versionString string
	if err := p.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&versionString); err != nil {
		return Capability{
			Family:         FamilyMySQL,
			FallbackReason: fmt.Sprintf("version query failed: %v", err),
		}
	}

	cap := Capability{
		Family:        detectFamily(versionString),
		VersionString: versionString,
	}
	version, ok := parseVersion(versionString)
	if !ok {
		cap.FallbackReason = "unparseable version string"
		return cap
	}
	cap.Version = version
	if !meetsVectorThreshold(cap.Family, version) {
		return cap
	}

	// The version qualifying is not proof: partial builds exist where the
	// type or the constructor is missing. Exercise both on a throwaway
	// table and believe only what works.
	if err := p.verifyVector(ctx, cap.Family); err != nil {
		cap.FallbackReason = fmt.Sprintf("vector round-trip failed: %v", err)
		return cap
	}
	cap.HasNativeVector = true
	return cap
}

const probeTable = "mvector_vector_probe"

func (p *Probe) verifyVector(ctx context.Context, family Family) error {
	if _, err := p.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+probeTable); err != nil {
		return err
	}
	defer func() {
		_, _ = p.db.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+probeTable)
	}()

	createSQL := fmt.Sprintf(
		"CREATE TABLE %s (id INT NOT NULL AUTO_INCREMENT, embedding VECTOR(3) NOT NULL, PRIMARY KEY (id))",
		probeTable,
	)
	if _, err := p.db.ExecContext(ctx, createSQL); err != nil {
		return err
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (embedding) VALUES (%s)",
		probeTable, family.VectorLiteral(`[1.0, 0.0, 0.0]`),
	)
	if _, err := p.db.ExecContext(ctx, insertSQL); err != nil {
		return err
	}
	return nil
}
