package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/streetsupply/wholesale_market/internal/config"
	"github.com/streetsupply/wholesale_market/internal/models"
)

const InventoryIndex = "inventory"

func NewClient(cfg *config.Config) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ES_URL},
		Username:  cfg.ES_USER,
		Password:  cfg.ES_PASSWORD,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, err
	}

	res, err := client.Info()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: %s: %s", res.Status(), body)
	}

	return client, nil
}

// IndexItem upserts one inventory document. Called best-effort from the
// inventory handlers; search lags a failed index rather than failing the write.
func IndexItem(ctx context.Context, client *elasticsearch.Client, item *models.InventoryItem) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return err
	}

	res, err := client.Index(
		InventoryIndex,
		bytes.NewReader(doc),
		client.Index.WithDocumentID(strconv.FormatUint(uint64(item.ID), 10)),
		client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", res.Status())
	}
	return nil
}

func DeleteItem(ctx context.Context, client *elasticsearch.Client, itemID uint) error {
	res, err := client.Delete(
		InventoryIndex,
		strconv.FormatUint(uint64(itemID), 10),
		client.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete: %s", res.Status())
	}
	return nil
}
