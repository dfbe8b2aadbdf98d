// Storage collector gathers per-volume capacity information.
// Uses gopsutil for cross-platform disk metrics.
package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/Guliveer/sysinv/internal/models"
)

// ignoredFSTypes are virtual, in-memory and remote filesystems. They do not
// describe storage attached to the host.
var ignoredFSTypes = map[string]bool{
	// Virtual / system
	"autofs": true, "binfmt_misc": true, "bpf": true, "cgroup": true,
	"cgroup2": true, "configfs": true, "debugfs": true, "devfs": true,
	"devtmpfs": true, "efivarfs": true, "fusectl": true, "hugetlbfs": true,
	"mqueue": true, "nsfs": true, "nullfs": true, "overlay": true,
	"proc": true, "procfs": true, "pstore": true, "ramfs": true,
	"securityfs": true, "squashfs": true, "sysfs": true, "tmpfs": true,
	"tracefs": true, "fuse.snapfuse": true,

	// Network / remote
	"9p": true, "afs": true, "ceph": true, "cifs": true, "davfs2": true,
	"fuse.blobfuse": true, "fuse.ceph": true, "fuse.gcsfuse": true,
	"fuse.rclone": true, "fuse.s3fs": true, "fuse.sshfs": true,
	"glusterfs": true, "gpfs": true, "lustre": true, "ncpfs": true,
	"nfs": true, "nfs4": true, "pvfs2": true, "smbfs": true,
}

// systemMountPrefixes are OS-internal volumes (macOS APFS system volumes).
var systemMountPrefixes = []string{
	"/System/Volumes/",
	"/private/var/vm",
}

func isSystemMount(mount string) bool {
	for _, prefix := range systemMountPrefixes {
		if strings.HasPrefix(mount, prefix) {
			return true
		}
	}
	return false
}

// StorageCollector collects capacity for each local volume.
type StorageCollector struct {
	logger *zap.Logger
}

// NewStorageCollector creates a new storage collector.
func NewStorageCollector(logger *zap.Logger) *StorageCollector {
	return &StorageCollector{logger: logger}
}

// Category returns the collector category.
func (c *StorageCollector) Category() models.Category { return models.CategoryStorage }

// Collect gathers capacity for all local partitions, ordered by mountpoint.
// Partitions whose usage cannot be read are skipped; if every partition
// fails the first error is returned.
func (c *StorageCollector) Collect(ctx context.Context) (models.FactValues, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	var (
		volumes  []models.Volume
		firstErr error
	)
	for _, p := range partitions {
		if ignoredFSTypes[p.Fstype] || isSystemMount(p.Mountpoint) {
			c.logger.Debug("Skipping non-local filesystem",
				zap.String("mount", p.Mountpoint),
				zap.String("fstype", p.Fstype))
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("usage of %s: %w", p.Mountpoint, err)
			}
			c.logger.Debug("Skipping unreadable partition",
				zap.String("mount", p.Mountpoint),
				zap.Error(err))
			continue
		}
		// Some virtual mounts report 0 size
		if usage.Total == 0 {
			continue
		}
		volumes = append(volumes, models.Volume{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			FSType:     p.Fstype,
			TotalBytes: usage.Total,
			FreeBytes:  usage.Free,
			UsedBytes:  usage.Used,
		})
	}

	if len(volumes) == 0 && firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(volumes, func(i, j int) bool {
		return volumes[i].Mountpoint < volumes[j].Mountpoint
	})
	return models.StorageFacts{Volumes: volumes}, nil
}

// IsAvailable returns true: disk metrics are available on all platforms.
func (c *StorageCollector) IsAvailable() bool { return true }
