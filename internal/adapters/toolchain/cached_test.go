package toolchain_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/anvil/internal/adapters/toolchain"
	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/anvil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestCachedResolver_RecordsFreshDetection(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	dir, hints := installDir(t, "gcc", "g++")
	key := domain.ToolchainCacheKey(domain.ToolchainGNU, filepath.Join(dir, "gcc"))

	store.EXPECT().IsStale(domain.ScopeGlobal, key, gomock.Any()).Return(true)
	store.EXPECT().Record(domain.ScopeGlobal, key, gomock.Any()).DoAndReturn(
		func(_ domain.CacheScope, _ domain.CacheKey, rec domain.CacheRecord) error {
			assert.Equal(t, map[string]string{"kind": "gnu", "version": "13.2.0", "arch": "x86_64-linux-gnu"}, rec.Data)
			assert.NotZero(t, rec.Fingerprint.LastWrite)
			return nil
		})

	inner := toolchain.NewResolverWithRunner(fakeCompilers{
		"gcc --version":    gccBanner,
		"gcc -dumpmachine": "x86_64-linux-gnu\n",
	}.run)
	desc, err := toolchain.NewCachedResolver(inner, store).Resolve(context.Background(), domain.ToolchainGNU, hints)
	require.NoError(t, err)
	assert.Equal(t, "13.2.0", desc.Version)
}

func TestCachedResolver_SkipsDetectionWhenFresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	dir, hints := installDir(t, "cc", "clang++")
	key := domain.ToolchainCacheKey(domain.ToolchainUnknown, filepath.Join(dir, "cc"))

	store.EXPECT().IsStale(domain.ScopeGlobal, key, gomock.Any()).Return(false)
	store.EXPECT().Lookup(domain.ScopeGlobal, key).Return(domain.CacheRecord{
		Data: map[string]string{"kind": "llvm", "version": "17.0.6", "arch": "x86_64-pc-linux-gnu"},
	}, true)

	inner := toolchain.NewResolverWithRunner(func(context.Context, string, []string, []string) (string, error) {
		return "", errors.New("compiler must not be queried")
	})
	desc, err := toolchain.NewCachedResolver(inner, store).Resolve(context.Background(), domain.ToolchainUnknown, hints)
	require.NoError(t, err)
	assert.Equal(t, domain.ToolchainLLVM, desc.Kind)
	assert.Equal(t, filepath.Join(dir, "clang++"), desc.CXX)
	assert.Equal(t, "x86_64-pc-linux-gnu", desc.Arch)
}

func TestCachedResolver_PolicyAppliesToCachedVersions(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockCacheStore(ctrl)
	_, hints := installDir(t, "gcc", "g++")

	store.EXPECT().IsStale(domain.ScopeGlobal, gomock.Any(), gomock.Any()).Return(false)
	store.EXPECT().Lookup(domain.ScopeGlobal, gomock.Any()).Return(domain.CacheRecord{
		Data: map[string]string{"kind": "gnu", "version": "5.4.0", "arch": "x86_64-linux-gnu"},
	}, true)

	inner := toolchain.NewResolverWithRunner(fakeCompilers{}.run)
	_, err := toolchain.NewCachedResolver(inner, store).Resolve(context.Background(), domain.ToolchainGNU, hints)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrToolchainVersionUnsupported.Error())
}
