// SPDX-License-Identifier: GPL-2.0-or-later

// Package commandline registers the process flags on the default flag set.
package commandline

import (
	"flag"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

var (
	debug           bool
	ignoreChecksums bool
	compress        bool

	parallel = boolInt{false, runtime.NumCPU()}

	lod int

	basedir string
	game    string
	out     string
	config  string

	vpks stringList
)

type boolInt struct {
	set bool
	num int
}

func (b *boolInt) IsBoolFlag() bool {
	// We can not support both "-flag" and "-flag 10"
	// This allows "-flag", and "-flag=10"
	// and also "-flag=true" and "-flag=false"
	// but not "-flag 10"
	return true
}

func (b *boolInt) Set(s string) error {
	v, err := strconv.ParseInt(s, 0, strconv.IntSize)
	if err != nil {
		v, err := strconv.ParseBool(s)
		b.set = v
		return err
	}
	b.set = true
	b.num = int(v)
	return nil
}

func (b *boolInt) String() string {
	return fmt.Sprintf("Set: %v, Num: %v", b.set, b.num)
}

// stringList collects every occurrence of a repeated flag.
type stringList []string

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func init() {
	register(flag.CommandLine)
}

func register(fs *flag.FlagSet) {
	fs.BoolVar(&debug, "debug", false, "enable debug output")
	fs.BoolVar(&ignoreChecksums, "ignorechecksums", false, "accept mdl/vvd/vtx files with differing checksums")
	fs.BoolVar(&compress, "zstd", false, "write the batch manifest zstd compressed")

	fs.Var(&parallel, "parallel", "decode in parallel, optional number of workers")

	fs.IntVar(&lod, "lod", 0, "number of LODs to assemble, 0 is all")

	fs.StringVar(&basedir, "basedir", "", "directory holding the game directories")
	fs.StringVar(&game, "game", "", "mod directory mounted in front of the default game")
	fs.StringVar(&out, "out", "", "output directory")
	fs.StringVar(&config, "config", "", "JSON configuration file")

	fs.Var(&vpks, "vpk", "additional vpk directory file, may be repeated")
}

func BaseDirectory() string {
	return basedir
}

func Game() string {
	return game
}

func Out() string {
	return out
}

func Config() string {
	return config
}

func VPKs() []string {
	return vpks
}

func Debug() bool {
	return debug
}

func IgnoreChecksums() bool {
	return ignoreChecksums
}

func Compress() bool {
	return compress
}

func LOD() int {
	return lod
}

func Parallel() bool {
	return parallel.set
}

func ParallelNum() int {
	return parallel.num
}
