package global

import (
	"live_support/config"
	"live_support/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	Users         string // Tên collection cho admin users
	ChatSessions  string // Tên collection cho session ẩn danh
	ChatMessages  string // Tên collection cho message (session hoặc conversation)
	ChatContacts  string // Tên collection cho contact định danh
	Conversations string // Tên collection cho conversation bền vững
	MergeJournal  string // Tên collection cho journal của merge (step cursor)
}

// Các biến toàn cục
var Validate *validator.Validate                // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client               // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration          // Cấu hình của server
var MongoDB_ColNames MongoDB_CollectionName     // Tên các collection

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
