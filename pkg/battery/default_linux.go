package battery

import (
	"github.com/charlie0129/battinfo/pkg/powerinfo"
	"github.com/charlie0129/battinfo/pkg/sysfs"
)

func defaultSource(sysfsRoot string) powerinfo.Source {
	return sysfs.New(sysfsRoot)
}
