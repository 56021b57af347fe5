package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"live_support/config"
	authmodels "live_support/internal/api/auth/models"
	chatmodels "live_support/internal/api/chat/models"
	"live_support/internal/database"
	"live_support/internal/global"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.Users = "auth_users"
	global.MongoDB_ColNames.ChatSessions = "chat_sessions"
	global.MongoDB_ColNames.ChatMessages = "chat_messages"
	global.MongoDB_ColNames.ChatContacts = "chat_contacts"
	global.MongoDB_ColNames.Conversations = "chat_conversations"
	global.MongoDB_ColNames.MergeJournal = "chat_merge_journal"

	logrus.Info("Initialized collection names") // Ghi log thông báo đã khởi tạo tên các collection
}

// Hàm khởi tạo validator (dùng global.InitValidator để đăng ký custom validators: no_xss, chat_role)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator") // Ghi log thông báo đã khởi tạo validator
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.ServerConfig = config.NewConfig()
	if global.ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil") // Ghi log lỗi nếu khởi tạo cấu hình thất bại
	}
	logrus.Info("Initialized server config") // Ghi log thông báo đã khởi tạo cấu hình server
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err) // Ghi log lỗi nếu kết nối database thất bại
	}
	logrus.Info("Connected to MongoDB") // Ghi log thông báo đã kết nối database thành công

	// Khởi tạo các db và collections nếu chưa có
	if err := database.EnsureDatabaseAndCollections(global.MongoDB_Session); err != nil {
		logrus.Fatalf("Failed to ensure database and collections: %v", err)
	}
	logrus.Info("Ensured database and collections") // Ghi log thông báo đã đảm bảo database và các collection

	// Khởi tạo các index cho các collection
	dbName := global.ServerConfig.MongoDB_DBName
	db := global.MongoDB_Session.Database(dbName)
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.Users), authmodels.AuthUser{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.ChatSessions), chatmodels.ChatSession{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.ChatMessages), chatmodels.ChatMessage{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.ChatContacts), chatmodels.ChatContact{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.Conversations), chatmodels.ChatConversation{})
	database.CreateIndexes(context.TODO(), db.Collection(global.MongoDB_ColNames.MergeJournal), chatmodels.ChatMergeJournal{})
}

// InitRegistry đăng ký các collection vào registry toàn cục để các service tra cứu
func InitRegistry() {
	dbName := global.ServerConfig.MongoDB_DBName
	db := global.MongoDB_Session.Database(dbName)

	colNames := []string{
		global.MongoDB_ColNames.Users,
		global.MongoDB_ColNames.ChatSessions,
		global.MongoDB_ColNames.ChatMessages,
		global.MongoDB_ColNames.ChatContacts,
		global.MongoDB_ColNames.Conversations,
		global.MongoDB_ColNames.MergeJournal,
	}
	for _, name := range colNames {
		if _, err := global.RegistryCollections.Register(name, db.Collection(name)); err != nil {
			logrus.Fatalf("Failed to register collection %s: %v", name, err)
		}
	}

	logrus.Info("Initialized collection registry") // Ghi log thông báo đã đăng ký các collection
}
