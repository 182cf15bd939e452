package battery

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

type options struct {
	source    powerinfo.Source
	sysfsRoot string
	logger    *logrus.Entry
}

// Option configures a Manager.
type Option func(*options)

// WithSource makes the Manager read batteries from src instead of the
// platform default.
func WithSource(src powerinfo.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithSysfsRoot changes the power supply directory used by the sysfs
// source. Ignored when the source is not sysfs.
func WithSysfsRoot(root string) Option {
	return func(o *options) {
		o.sysfsRoot = root
	}
}

// WithLogger sets the logger of the Manager.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) {
		o.logger = l
	}
}
