// @title           HikBridge HTTP Service API
// @version         1.0
// @description     A video intercom bridge service that polls cloud and local device APIs for call status
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer: ` prefix
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hikbridge-http-service/config"
	"hikbridge-http-service/models"
	"hikbridge-http-service/routes"
)

func main() {
	// 初始化日志配置
	if err := config.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		config.Warning("无法加载.env文件: %v", err)
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
	} else {
		config.Info("成功加载.env文件")
	}

	// 获取配置
	cfg := config.GetConfig()

	// 连接数据库
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("无法连接数据库: %v", err)
	}

	// 根据配置执行不同的数据库操作
	if cfg.DBMigrationMode == "drop" {
		// 删除并重建表
		log.Println("警告: 在drop模式下运行，将删除并重建所有表")
		if err := dropAndRecreateTables(db); err != nil {
			log.Fatalf("删除并重建表失败: %v", err)
		}
	} else {
		// 默认AutoMigrate，只会添加新列和新表，不会删除或修改列
		log.Println("在标准模式下运行，将只添加新列和新表")
		if err := autoMigrate(db); err != nil {
			log.Fatalf("自动迁移失败: %v", err)
		}
	}

	// 确保默认管理员存在
	if err := ensureDefaultAdmin(db, cfg); err != nil {
		log.Fatalf("创建默认管理员失败: %v", err)
	}

	// 初始化路由和服务容器
	r, serviceContainer := routes.SetupRouter(db, cfg)

	// 尝试复用缓存的云端会话ID
	if serviceContainer.GetHikCloudService().SessionID() == "" {
		if sessionID, err := serviceContainer.GetRedisService().GetCachedSessionID(); err == nil && sessionID != "" {
			serviceContainer.GetHikCloudService().SetSessionID(sessionID)
			config.Info("已从缓存恢复云端会话ID")
		}
	}

	// 连接MQTT代理；失败不阻塞启动，状态变更只是发不出去
	if err := serviceContainer.GetMQTTService().Connect(); err != nil {
		config.Warning("连接MQTT代理失败: %v", err)
	}

	// 启动轮询服务
	if err := serviceContainer.GetPollerService().Start(); err != nil {
		log.Fatalf("启动轮询服务失败: %v", err)
	}

	// 监听退出信号，停掉轮询并断开MQTT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		config.Info("收到退出信号，正在停止服务...")
		serviceContainer.GetPollerService().Stop()
		serviceContainer.GetMQTTService().Disconnect()
		os.Exit(0)
	}()

	// 启动HTTP服务
	addr := ":" + cfg.ServerPort
	config.Info("HTTP服务启动于 %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("HTTP服务启动失败: %v", err)
	}
}

// initDB 初始化数据库连接并配置连接池
func initDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// 配置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// autoMigrate 自动迁移所有模型
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.IntercomDevice{},
		&models.CallStatusLog{},
	)
}

// dropAndRecreateTables 删除并重建所有表
func dropAndRecreateTables(db *gorm.DB) error {
	if err := db.Migrator().DropTable(
		&models.CallStatusLog{},
		&models.IntercomDevice{},
		&models.Admin{},
	); err != nil {
		return err
	}

	return autoMigrate(db)
}

// ensureDefaultAdmin 确保默认管理员账户存在
func ensureDefaultAdmin(db *gorm.DB, cfg *config.Config) error {
	var admin models.Admin
	err := db.Where("username = ?", "admin").First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin = models.Admin{
		Username: "admin",
		Password: string(hashedPassword),
		Email:    "admin@localhost",
	}

	config.Info("创建默认管理员账户: admin")
	return db.Create(&admin).Error
}
