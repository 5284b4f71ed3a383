//go:build linux

package topology

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/cmuq-ccl/polyhj/logging"
)

const sysCPUDir = "/sys/devices/system/cpu"

// Discover reads the LLC > core > hardware-thread hierarchy and LLC geometry
// from sysfs. If sysfs is unusable, a flat single-LLC topology over all
// visible CPUs is returned so the engine can still run, at the cost of
// placement quality.
func Discover() *Topology {
	topo, err := discoverSysfs()
	if err != nil {
		logging.Sugar().Warnf("topology discovery failed (%v); assuming one LLC with %d cores", err, runtime.NumCPU())
		return Synthetic(1, runtime.NumCPU(), 1)
	}
	return topo
}

func discoverSysfs() (*Topology, error) {
	dirs, err := filepath.Glob(filepath.Join(sysCPUDir, "cpu[0-9]*"))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing CPUs")
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no CPUs listed under %s", sysCPUDir)
	}

	var records []cpuRecord
	var llcSize, lineSize uint64
	llcKeys := map[string]int64{}

	for _, dir := range dirs {
		id, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(dir), "cpu"))
		if err != nil {
			continue
		}
		if online, err := readSysInt(filepath.Join(dir, "online")); err == nil && online == 0 {
			continue
		}

		coreID, err := readSysInt(filepath.Join(dir, "topology", "core_id"))
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "core_id of cpu%d", id)
		}
		pkgID, err := readSysInt(filepath.Join(dir, "topology", "physical_package_id"))
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "package of cpu%d", id)
		}

		// The LLC is the deepest data or unified cache; CPUs sharing its
		// shared_cpu_list share the LLC.
		idx, err := deepestCacheIndex(filepath.Join(dir, "cache"))
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "caches of cpu%d", id)
		}
		shared, err := os.ReadFile(filepath.Join(dir, "cache", idx, "shared_cpu_list"))
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "LLC sharing of cpu%d", id)
		}
		key, ok := llcKeys[string(shared)]
		if !ok {
			key = int64(len(llcKeys))
			llcKeys[string(shared)] = key
		}

		if llcSize == 0 {
			llcSize = readCacheSize(filepath.Join(dir, "cache", idx, "size"))
		}
		if lineSize == 0 {
			if v, err := readSysInt(filepath.Join(dir, "cache", idx, "coherency_line_size")); err == nil {
				lineSize = uint64(v)
			}
		}

		records = append(records, cpuRecord{
			os:      id,
			coreKey: int64(pkgID)<<32 | int64(coreID),
			llcKey:  key,
		})
	}

	if llcSize == 0 {
		return nil, fmt.Errorf("unable to extract LLC capacity")
	}
	if lineSize == 0 {
		lineSize = DefaultLineSize
		logging.Sugar().Warnf("unable to extract cache line size; using %d bytes", lineSize)
	}
	return build(records, llcSize, lineSize)
}

// deepestCacheIndex returns the cache index directory (e.g. "index3") of the
// highest-level data or unified cache of one CPU.
func deepestCacheIndex(cacheDir string) (string, error) {
	indices, err := filepath.Glob(filepath.Join(cacheDir, "index[0-9]*"))
	if err != nil || len(indices) == 0 {
		return "", fmt.Errorf("no cache indices under %s", cacheDir)
	}
	best, bestLevel := "", -1
	for _, idx := range indices {
		typ, err := os.ReadFile(filepath.Join(idx, "type"))
		if err != nil || strings.TrimSpace(string(typ)) == "Instruction" {
			continue
		}
		level, err := readSysInt(filepath.Join(idx, "level"))
		if err != nil {
			continue
		}
		if level > bestLevel {
			best, bestLevel = filepath.Base(idx), level
		}
	}
	if best == "" {
		return "", fmt.Errorf("no data or unified cache under %s", cacheDir)
	}
	return best, nil
}

func readSysInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}

// readCacheSize parses sysfs cache sizes such as "32768K".
func readCacheSize(path string) uint64 {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	s := strings.TrimSpace(string(b))
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1024, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1024*1024, strings.TrimSuffix(s, "M")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v * mult
}
