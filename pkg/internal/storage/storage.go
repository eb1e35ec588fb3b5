// Package storage 聚合持久化资源：分享注册表数据库、消息队列与远端层级存储.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	dbClient := mgr.GetDBClient()
//	mqClient := mgr.GetMQClient()
package storage

import (
	"context"
	"sync"

	"github.com/yeisme/vaultshare/pkg/configs"
	dbc "github.com/yeisme/vaultshare/pkg/internal/storage/db"
	kvc "github.com/yeisme/vaultshare/pkg/internal/storage/kv"
	mqc "github.com/yeisme/vaultshare/pkg/internal/storage/mq"
	"github.com/yeisme/vaultshare/pkg/internal/storage/store"
	nlog "github.com/yeisme/vaultshare/pkg/log"
)

// Manager 聚合所有存储资源。远端存储客户端不在这里持有：
// 每个分享携带自己的凭证，通过 OpenStore 按需构造.
type Manager struct {
	DB *dbc.Client
	MQ *mqc.Client
	KV *kvc.Client

	breaker *store.Breaker
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		if dbi, e := dbc.New(ctx); e != nil {
			err = e

			return
		} else {
			m.DB = dbi
		}

		// MQ
		if mqi, e := mqc.New(ctx); e != nil {
			err = e

			return
		} else {
			m.MQ = mqi
		}

		// KV
		if kvi, e := kvc.New(ctx); e != nil {
			err = e

			return
		} else {
			m.KV = kvi
		}

		m.breaker = store.NewBreaker(cfg.CircuitBreaker)

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// KV 返回已初始化管理器的 KV 客户端；Init 之前为 nil.
func KV() *kvc.Client {
	if mgr == nil {
		return nil
	}

	return mgr.KV
}

// Close 释放存储资源；进程退出前调用.
func Close() {
	if mgr == nil {
		return
	}

	if mgr.MQ != nil {
		if err := mgr.MQ.Close(); err != nil {
			nlog.Logger().Warn().Err(err).Msg("close mq client")
		}
	}

	if mgr.KV != nil {
		if err := mgr.KV.Close(); err != nil {
			nlog.Logger().Warn().Err(err).Msg("close kv client")
		}
	}

	if mgr.DB != nil && mgr.DB.DB != nil {
		if sqlDB, err := mgr.DB.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// OpenStore 用解密后的凭证构造远端存储客户端，并套上共享熔断器.
func (m *Manager) OpenStore(cred store.Credential) (store.Client, error) {
	cli, err := store.Dial(configs.GetConfig().Store, cred)
	if err != nil {
		return nil, err
	}

	return m.breaker.Wrap(cli), nil
}
