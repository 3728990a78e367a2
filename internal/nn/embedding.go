package nn

import (
	"fmt"

	"github.com/prism-ml/prism/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Commonly used as the first layer of a Transformer to convert token IDs
// into embedding vectors.
//
// The weight matrix has shape [num_embeddings, embedding_dim] and is
// initialized from a standard normal distribution.
//
// Example:
//
//	backend := cpu.New()
//	embed := nn.NewEmbedding(30522, 512, backend)  // vocab 30522, dim 512
//
//	ids, _ := tensor.FromSlice([]int32{101, 2054, 102}, tensor.Shape{1, 3}, backend)
//	vectors := embed.Forward(ids)  // shape: [1, 3, 512]
type Embedding[B tensor.Backend] struct {
	weight   *Parameter[B] // [num_embeddings, embedding_dim]
	numEmbed int
	embedDim int
	backend  B
}

// NewEmbedding creates an embedding table with normally distributed weights.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	weight := tensor.Randn[float32](tensor.Shape{numEmbeddings, embeddingDim}, backend)

	return &Embedding[B]{
		weight:   NewParameter("weight", weight),
		numEmbed: numEmbeddings,
		embedDim: embeddingDim,
		backend:  backend,
	}
}

// NewEmbeddingWithWeight creates an embedding table from an existing weight
// tensor. The weight must be 2D with shape [num_embeddings, embedding_dim].
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B], backend B) (*Embedding[B], error) {
	shape := weight.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("embedding weight must be 2D, got shape %v", shape)
	}

	return &Embedding[B]{
		weight:   NewParameter("weight", weight),
		numEmbed: shape[0],
		embedDim: shape[1],
		backend:  backend,
	}, nil
}

// Forward looks up embedding vectors for the given indices.
//
// Input: int32 indices of any shape, e.g. [batch, seq]
// Output: float32 embeddings of shape [...indices_shape, embedding_dim]
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.weight.Tensor().Embedding(indices)
}

// Parameters returns the embedding weight as the only parameter.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.weight}
}

// Weight returns the weight parameter.
func (e *Embedding[B]) Weight() *Parameter[B] {
	return e.weight
}

// NumEmbeddings returns the vocabulary size.
func (e *Embedding[B]) NumEmbeddings() int {
	return e.numEmbed
}

// EmbeddingDim returns the embedding dimensionality.
func (e *Embedding[B]) EmbeddingDim() int {
	return e.embedDim
}

// StateDict returns a map of parameter names to raw tensors.
func (e *Embedding[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight": e.weight.Tensor().Raw(),
	}
}

// LoadStateDict loads the embedding weight from a state dictionary.
func (e *Embedding[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	weightRaw, ok := stateDict["weight"]
	if !ok {
		return fmt.Errorf("missing weight in state dict")
	}

	expectedShape := tensor.Shape{e.numEmbed, e.embedDim}
	if !weightRaw.Shape().Equal(expectedShape) {
		return fmt.Errorf("weight shape mismatch: expected %v, got %v",
			expectedShape, weightRaw.Shape())
	}
	if weightRaw.DType() != tensor.Float32 {
		return fmt.Errorf("weight dtype mismatch: expected float32, got %v", weightRaw.DType())
	}

	copy(e.weight.Tensor().Data(), weightRaw.AsFloat32())
	return nil
}
