//go:build windows
// +build windows

package filesystem

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/vertextoedge/remote-pull-agent/internal/domain"
)

var (
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	getDiskFreeSpace = kernel32.NewProc("GetDiskFreeSpaceExW")
)

// GetDiskUsage returns disk usage for the volume holding path
func (m *Manager) GetDiskUsage(path string) (*domain.DiskSpaceInfo, error) {
	var freeBytesAvailable, totalNumberOfBytes, totalNumberOfFreeBytes uint64

	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("failed to convert path: %w", err)
	}

	ret, _, err := getDiskFreeSpace.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeBytesAvailable)),
		uintptr(unsafe.Pointer(&totalNumberOfBytes)),
		uintptr(unsafe.Pointer(&totalNumberOfFreeBytes)),
	)

	if ret == 0 {
		return nil, fmt.Errorf("failed to get disk stats for %s: %w", path, err)
	}

	used := totalNumberOfBytes - totalNumberOfFreeBytes

	return &domain.DiskSpaceInfo{
		TotalBytes: totalNumberOfBytes,
		UsedBytes:  used,
		FreeBytes:  totalNumberOfFreeBytes,
	}, nil
}
