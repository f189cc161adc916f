package stpledger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KarpelesLab/pjson"
)

// Client talks to a blockfrost-compatible REST API.
type Client struct {
	base    string
	project string
	hc      *http.Client
}

// NewClient returns a Ledger backed by the API at baseURL, authenticating
// with the given project id.
func NewClient(baseURL, projectId string) *Client {
	return &Client{
		base:    strings.TrimSuffix(baseURL, "/"),
		project: projectId,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

var errNotFound = fmt.Errorf("ledger: not found")

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base+path, nil)
	if err != nil {
		return err
	}
	if c.project != "" {
		req.Header.Set("project_id", c.project)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ledger read failed: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		if len(buf) > 512 {
			buf = buf[:512]
		}
		return fmt.Errorf("ledger HTTP status %s on GET %s: %s", resp.Status, path, buf)
	}
	return pjson.Unmarshal(buf, out)
}

func (c *Client) ListAccountAssets(ctx context.Context, stake string, page, count int) ([]AssetRow, error) {
	var rows []AssetRow
	path := "/accounts/" + url.PathEscape(stake) + "/addresses/assets?count=" + strconv.Itoa(count) + "&page=" + strconv.Itoa(page)
	err := c.get(ctx, path, &rows)
	if err != nil {
		if err == errNotFound {
			// account never seen on chain → empty holdings
			return nil, nil
		}
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetAssetInfo(ctx context.Context, unit string) (*AssetInfo, error) {
	var info *AssetInfo
	if err := c.get(ctx, "/assets/"+url.PathEscape(unit), &info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) ResolveStakeAddress(ctx context.Context, paymentAddr string) (string, error) {
	var res struct {
		StakeAddress *string `json:"stake_address"`
	}
	err := c.get(ctx, "/addresses/"+url.PathEscape(paymentAddr), &res)
	if err != nil {
		if err == errNotFound {
			return "", nil
		}
		return "", err
	}
	if res.StakeAddress == nil {
		return "", nil
	}
	return *res.StakeAddress, nil
}
