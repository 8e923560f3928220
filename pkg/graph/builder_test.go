package graph

import (
	"errors"
	"testing"

	"github.com/wikicorpus/graphengine/pkg/engineerr"
)

func TestBuildMissingSnapshotIsIOFailure(t *testing.T) {
	_, err := Build("enwiki", t.TempDir())
	if err == nil {
		t.Fatal("Build with no snapshot files present returned nil error")
	}
	if !errors.Is(err, engineerr.IOFailure) {
		t.Errorf("Build error = %v, want engineerr.IOFailure", err)
	}
}
