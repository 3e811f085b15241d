package main

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/scpi/cli"
)

func TestBuildVersion(t *testing.T) {
	version, sha := cli.Version, cli.CommitSHA
	t.Cleanup(func() { cli.Version, cli.CommitSHA = version, sha })

	cli.Version, cli.CommitSHA = "", ""
	assert.Equal(t, "dev", buildVersion())

	cli.Version, cli.CommitSHA = "1.2.0", "abc1234"
	assert.Equal(t, "1.2.0 (abc1234)", buildVersion())
}
