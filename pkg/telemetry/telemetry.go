// Package telemetry provides no-op event tracking hooks. Deployments that
// ship usage analytics swap in a real client; the open-source build keeps
// the call sites and discards the events.
package telemetry

type Client struct{}

var GlobalClient *Client = nil

func (c *Client) Track(event string, props map[string]interface{})                            {}
func (c *Client) TrackWithContext(event string, props map[string]interface{}, args ...string) {}
