//go:build !linux

package battery

import (
	"github.com/charlie0129/battinfo/pkg/powerinfo"
	"github.com/charlie0129/battinfo/pkg/system"
)

func defaultSource(_ string) powerinfo.Source {
	return system.New()
}
