package redis

import (
	"fmt"
	"strings"

	rd "github.com/redis/go-redis/v9"
)

// Config addresses a single node, sentinel or cluster deployment; the
// client type follows from the number of Addrs.
type Config struct {
	Addrs     []string
	Namespace string
	Password  string
	DB        int
}

type baseDao struct {
	redisClient rd.UniversalClient
	namespace   string
}

func newBaseDao(conf Config) *baseDao {
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs:    conf.Addrs,
		Password: conf.Password,
		DB:       conf.DB,
	})
	return &baseDao{
		redisClient: redisClient,
		namespace:   conf.Namespace,
	}
}

func (bs *baseDao) getNamespaceKey(args ...string) string {
	return fmt.Sprintf("%s:%s", bs.namespace, strings.Join(args, ":"))
}

func (bs *baseDao) Close() error {
	return bs.redisClient.Close()
}
