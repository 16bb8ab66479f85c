package repoaccess

import (
	"context"
	"sync"
)

// VCS implements the engine's VCS collaborator on top of per-repository
// clients. Clients are cached per repository URL; construction is cheap but
// parsing the URL on every diff would be noise.
type VCS struct {
	accessToken string
	mu          sync.Mutex
	clients     map[string]Client
}

func NewVCS(accessToken string) *VCS {
	return &VCS{accessToken: accessToken, clients: make(map[string]Client)}
}

func (v *VCS) ResolveCommit(ctx context.Context, repoURL, ref string) (string, error) {
	client, err := v.clientFor(repoURL)
	if err != nil {
		return "", err
	}
	return client.ResolveCommit(ctx, ref)
}

func (v *VCS) GetFileContent(ctx context.Context, repoURL, path, ref string) ([]byte, error) {
	client, err := v.clientFor(repoURL)
	if err != nil {
		return nil, err
	}
	return client.GetFileContent(ctx, path, ref)
}

func (v *VCS) clientFor(repoURL string) (Client, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if client, ok := v.clients[repoURL]; ok {
		return client, nil
	}
	client, err := NewClient(v.accessToken, repoURL)
	if err != nil {
		return Client{}, err
	}
	v.clients[repoURL] = client
	return client, nil
}
