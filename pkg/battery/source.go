package battery

import (
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
	"github.com/charlie0129/battinfo/pkg/sysfs"
	"github.com/charlie0129/battinfo/pkg/system"
)

// Source names accepted by NewSource.
const (
	SourceAuto   = "auto"
	SourceSysfs  = "sysfs"
	SourceSystem = "system"
)

// NewSource builds a source by name. sysfsRoot only applies to sysfs.
func NewSource(name, sysfsRoot string) (powerinfo.Source, error) {
	switch strings.ToLower(name) {
	case "", SourceAuto:
		return defaultSource(sysfsRoot), nil
	case SourceSysfs:
		return sysfs.New(sysfsRoot), nil
	case SourceSystem:
		return system.New(), nil
	default:
		return nil, pkgerrors.Wrapf(ErrUnknownSource, "%q", name)
	}
}
