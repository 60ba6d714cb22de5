package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
		ok   bool
	}{
		{"8.0.35", Version{8, 0, 35}, true},
		{"11.8.2-MariaDB-log", Version{11, 8, 2}, true},
		{"5.7.44-enterprise", Version{5, 7, 44}, true},
		{"garbage", Version{}, false},
		{"", Version{}, false},
	}
	for _, tt := range tests {
		got, ok := parseVersion(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestDetectFamily(t *testing.T) {
	require.Equal(t, FamilyMariaDB, detectFamily("11.8.2-MariaDB-log"))
	require.Equal(t, FamilyMariaDB, detectFamily("10.6.1-mariadb"))
	require.Equal(t, FamilyMySQL, detectFamily("8.0.35"))
	require.Equal(t, FamilyMySQL, detectFamily("8.4.0-commercial"))
}

func TestMeetsVectorThreshold(t *testing.T) {
	tests := []struct {
		name   string
		family Family
		v      Version
		want   bool
	}{
		{"mysql below", FamilyMySQL, Version{8, 0, 31}, false},
		{"mysql at threshold", FamilyMySQL, Version{8, 0, 32}, true},
		{"mysql newer major", FamilyMySQL, Version{9, 0, 0}, true},
		{"mariadb below", FamilyMariaDB, Version{11, 6, 9}, false},
		{"mariadb at threshold", FamilyMariaDB, Version{11, 7, 0}, true},
		{"mariadb newer", FamilyMariaDB, Version{12, 0, 0}, true},
		{"old mariadb", FamilyMariaDB, Version{10, 11, 99}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, meetsVectorThreshold(tt.family, tt.v))
		})
	}
}

func TestVersionAtLeast(t *testing.T) {
	require.True(t, Version{8, 0, 32}.AtLeast(Version{8, 0, 32}))
	require.True(t, Version{8, 1, 0}.AtLeast(Version{8, 0, 32}))
	require.False(t, Version{8, 0, 31}.AtLeast(Version{8, 0, 32}))
	require.False(t, Version{7, 9, 99}.AtLeast(Version{8, 0, 32}))
}
