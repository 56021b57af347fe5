package database

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"live_support/internal/global"
	"live_support/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureDatabaseAndCollections kiểm tra và tạo database cùng các collections nếu chưa có.
// Tên collections lấy từ global.MongoDB_ColNames (duyệt bằng reflection).
func EnsureDatabaseAndCollections(client *mongo.Client) error {
	dbName := global.ServerConfig.MongoDB_DBName

	// Context tổng 30 giây để duyệt tất cả collections
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(dbName)

	collections := []string{}
	v := reflect.ValueOf(global.MongoDB_ColNames)
	for i := 0; i < v.NumField(); i++ {
		collections = append(collections, v.Field(i).String())
	}

	collList, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	existing := map[string]bool{}
	for _, name := range collList {
		existing[name] = true
	}

	for _, collectionName := range collections {
		if collectionName == "" || existing[collectionName] {
			continue
		}
		if err := db.CreateCollection(ctx, collectionName); err != nil {
			// Collection có thể đã được tạo đồng thời bởi instance khác
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
			}
		}
		logger.GetAppLogger().Infof("Created collection %s", collectionName)
	}

	return nil
}

// CreateIndexes tạo index cho collection dựa trên struct tag `index` của model.
// Hỗ trợ các dạng tag:
//   - index:"single:1" hoặc index:"single:-1"  — index đơn theo field
//   - index:"unique"                            — index đơn unique
//   - index:"unique,sparse"                     — unique sparse (bỏ qua doc thiếu field)
//   - index:"compound:<tên>,order:-1"           — tham gia compound index <tên>
//
// Compound index có tên chứa "_unique" sẽ được tạo unique; chứa "_sparse" sẽ được tạo sparse.
//
// Index đã tồn tại với cùng tên sẽ được giữ nguyên.
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	modelType := reflect.TypeOf(model)
	if modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("không thể lấy danh sách index: %w", err)
	}
	defer cursor.Close(ctx)

	existingIndexes := map[string]bool{}
	for cursor.Next(ctx) {
		var indexInfo bson.M
		if err := cursor.Decode(&indexInfo); err != nil {
			return fmt.Errorf("không thể giải mã thông tin index: %w", err)
		}
		if name, ok := indexInfo["name"].(string); ok {
			existingIndexes[name] = true
		}
	}

	compoundGroups := map[string]bson.D{}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		tag, ok := field.Tag.Lookup("index")
		if !ok {
			continue
		}

		bsonField := strings.Split(field.Tag.Get("bson"), ",")[0]
		if bsonField == "" || bsonField == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		order := 1
		sparse := false
		for _, p := range parts {
			if p == "order:-1" {
				order = -1
			}
			if p == "sparse" {
				sparse = true
			}
		}

		for _, p := range parts {
			switch {
			case strings.HasPrefix(p, "single:"):
				singleOrder := 1
				if strings.TrimPrefix(p, "single:") == "-1" {
					singleOrder = -1
				}
				indexName := bsonField + "_single"
				if existingIndexes[indexName] {
					continue
				}
				opts := options.Index().SetName(indexName)
				keys := bson.D{{Key: bsonField, Value: singleOrder}}
				if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts}); err != nil {
					return fmt.Errorf("không thể tạo index %s: %w", indexName, err)
				}
			case p == "unique":
				indexName := bsonField + "_unique"
				if existingIndexes[indexName] {
					continue
				}
				opts := options.Index().SetName(indexName).SetUnique(true)
				if sparse {
					opts = opts.SetSparse(true)
				}
				keys := bson.D{{Key: bsonField, Value: 1}}
				if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts}); err != nil {
					return fmt.Errorf("không thể tạo index %s: %w", indexName, err)
				}
			case strings.HasPrefix(p, "compound:"):
				groupName := strings.TrimPrefix(p, "compound:")
				compoundGroups[groupName] = append(compoundGroups[groupName], bson.E{Key: bsonField, Value: order})
			}
		}
	}

	// Tạo các compound index sau khi gom đủ fields
	for groupName, keys := range compoundGroups {
		if existingIndexes[groupName] || len(keys) < 2 {
			continue
		}
		opts := options.Index().SetName(groupName)
		if strings.Contains(groupName, "_unique") {
			opts = opts.SetUnique(true)
		}
		if strings.Contains(groupName, "_sparse") {
			opts = opts.SetSparse(true)
		}
		if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts}); err != nil {
			return fmt.Errorf("không thể tạo compound index %s: %w", groupName, err)
		}
	}

	return nil
}
