package client

import (
	"encoding/json"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/battinfo/pkg/config"
	"github.com/charlie0129/battinfo/pkg/powerinfo"
)

func (c *Client) GetBatteries() ([]*powerinfo.Battery, error) {
	ret, err := c.Get("/batteries")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get batteries")
	}

	var bats []*powerinfo.Battery
	if err := json.Unmarshal([]byte(ret), &bats); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal batteries")
	}
	return bats, nil
}

func (c *Client) GetBattery(index int) (*powerinfo.Battery, error) {
	ret, err := c.Get(fmt.Sprintf("/batteries/%d", index))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery %d", index)
	}

	var bat powerinfo.Battery
	if err := json.Unmarshal([]byte(ret), &bat); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery %d", index)
	}
	return &bat, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	conf := &config.RawFileConfig{}
	if err := json.Unmarshal([]byte(ret), conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}
	return conf, nil
}

// Version is the build information of the daemon.
type Version struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func (c *Client) GetVersion() (Version, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return Version{}, pkgerrors.Wrapf(err, "failed to get version")
	}

	var v Version
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return Version{}, pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}
